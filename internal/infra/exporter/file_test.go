package exporter

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/LouYuanbo1/cdpspider/internal/domain/entity"
	"github.com/stretchr/testify/require"
)

var exportTime = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func testRecords() []entity.Record {
	return []entity.Record{
		{"text": "第一条", "likes": float64(42), "link": "https://x.com/a/status/1"},
		{"text": "第二条", "likes": float64(7)},
	}
}

func TestSaveJSON(t *testing.T) {
	fe, err := InitFileExporter(t.TempDir())
	require.NoError(t, err)

	file, err := fe.SaveJSON("twitter", testRecords(), exportTime)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(file, "twitter_20260830_120000.json"))

	buf, err := os.ReadFile(file)
	require.NoError(t, err)
	var payload struct {
		Source    string          `json:"source"`
		CrawledAt string          `json:"crawled_at"`
		Count     int             `json:"count"`
		Data      []entity.Record `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf, &payload))
	require.Equal(t, "twitter", payload.Source)
	require.Equal(t, 2, payload.Count)
	require.Len(t, payload.Data, 2)
	require.Equal(t, "第一条", payload.Data[0]["text"])
}

// CSV表头是所有记录字段名的并集,缺失字段写空
func TestSaveCSVHeaderUnion(t *testing.T) {
	fe, err := InitFileExporter(t.TempDir())
	require.NoError(t, err)

	file, err := fe.SaveCSV("twitter", testRecords(), exportTime)
	require.NoError(t, err)

	f, err := os.Open(file)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, []string{"likes", "link", "text"}, rows[0])
	// 整数值不带小数点
	require.Equal(t, []string{"42", "https://x.com/a/status/1", "第一条"}, rows[1])
	require.Equal(t, []string{"7", "", "第二条"}, rows[2])
}

func TestSaveMarkdown(t *testing.T) {
	fe, err := InitFileExporter(t.TempDir())
	require.NoError(t, err)

	file, err := fe.SaveMarkdown("twitter", testRecords(), exportTime)
	require.NoError(t, err)

	buf, err := os.ReadFile(file)
	require.NoError(t, err)
	md := string(buf)
	require.Contains(t, md, "# twitter 数据")
	require.Contains(t, md, "数据条数: 2")
	require.Contains(t, md, "### 1. 第一条")
	require.Contains(t, md, "- **likes**: 42")
}

func TestInitFileExporterCreatesDir(t *testing.T) {
	dir := t.TempDir() + "/nested/exports"
	_, err := InitFileExporter(dir)
	require.NoError(t, err)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
