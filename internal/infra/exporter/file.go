package exporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/LouYuanbo1/cdpspider/internal/domain/entity"
)

// Markdown 导出只展示前100条,完整数据看JSON/CSV
const markdownLimit = 100

// FileExporter 把最终记录序列写成 JSON/CSV/Markdown 文件
// 文件名形如 <name>_<时间戳>.<ext>
type FileExporter struct {
	outputDir string
}

func InitFileExporter(outputDir string) (*FileExporter, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}
	return &FileExporter{outputDir: outputDir}, nil
}

func (fe *FileExporter) path(name, stamp, ext string) string {
	return filepath.Join(fe.outputDir, fmt.Sprintf("%s_%s.%s", name, stamp, ext))
}

// SaveJSON 带元信息(来源、抓取时间、条数)的完整导出
func (fe *FileExporter) SaveJSON(name string, records []entity.Record, crawledAt time.Time) (string, error) {
	payload := struct {
		Source    string          `json:"source"`
		CrawledAt string          `json:"crawled_at"`
		Count     int             `json:"count"`
		Data      []entity.Record `json:"data"`
	}{
		Source:    name,
		CrawledAt: crawledAt.Format(time.RFC3339),
		Count:     len(records),
		Data:      records,
	}
	buf, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	file := fe.path(name, stamp(crawledAt), "json")
	if err := os.WriteFile(file, buf, 0o644); err != nil {
		return "", fmt.Errorf("写入JSON失败: %w", err)
	}
	return file, nil
}

// SaveCSV 表头取全部记录字段名的并集,按名排序保证列序稳定
func (fe *FileExporter) SaveCSV(name string, records []entity.Record, crawledAt time.Time) (string, error) {
	header := fieldUnion(records)
	file := fe.path(name, stamp(crawledAt), "csv")
	f, err := os.Create(file)
	if err != nil {
		return "", fmt.Errorf("写入CSV失败: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return "", err
	}
	row := make([]string, len(header))
	for _, rec := range records {
		for i, k := range header {
			row[i] = cellString(rec[k])
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return file, w.Error()
}

// SaveMarkdown 人读摘要,标题优先取 title/text 字段
func (fe *FileExporter) SaveMarkdown(name string, records []entity.Record, crawledAt time.Time) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s 数据\n\n", name)
	fmt.Fprintf(&b, "抓取时间: %s\n", crawledAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "数据条数: %d\n\n---\n\n", len(records))

	for i, rec := range records {
		if i >= markdownLimit {
			break
		}
		fmt.Fprintf(&b, "### %d. %s\n\n", i+1, itemTitle(rec))
		keys := make([]string, 0, len(rec))
		for k := range rec {
			if !strings.HasPrefix(k, "_") {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- **%s**: %s\n", k, cellString(rec[k]))
		}
		b.WriteString("\n---\n\n")
	}

	file := fe.path(name, stamp(crawledAt), "md")
	if err := os.WriteFile(file, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("写入Markdown失败: %w", err)
	}
	return file, nil
}

func stamp(t time.Time) string {
	return t.Format("20060102_150405")
}

func fieldUnion(records []entity.Record) []string {
	seen := make(map[string]bool)
	for _, rec := range records {
		for k := range rec {
			seen[k] = true
		}
	}
	header := make([]string, 0, len(seen))
	for k := range seen {
		header = append(header, k)
	}
	sort.Strings(header)
	return header
}

func cellString(v any) string {
	if v == nil {
		return ""
	}
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%v", v)
}

func itemTitle(rec entity.Record) string {
	for _, k := range []string{"title", "text"} {
		if s, ok := rec[k].(string); ok && s != "" {
			if r := []rune(s); len(r) > 50 {
				return string(r[:50])
			}
			return s
		}
	}
	return "Item"
}
