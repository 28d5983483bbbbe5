package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStructuralKeyStable(t *testing.T) {
	rec := Record{"text": "你好", "likes": 42, "link": nil}
	require.Equal(t, StructuralKey(rec), StructuralKey(rec))
}

// 键序不同内容相同的记录哈希一致
func TestStructuralKeyOrderInsensitive(t *testing.T) {
	a := Record{"a": "1", "b": "2", "c": "3"}
	b := Record{"c": "3", "a": "1", "b": "2"}
	require.Equal(t, StructuralKey(a), StructuralKey(b))
}

func TestStructuralKeyContentSensitive(t *testing.T) {
	a := Record{"text": "hello"}
	b := Record{"text": "hello!"}
	require.NotEqual(t, StructuralKey(a), StructuralKey(b))
	// 同值换字段名也要区分
	c := Record{"title": "hello"}
	require.NotEqual(t, StructuralKey(a), StructuralKey(c))
}

func TestResultSetInsertDedup(t *testing.T) {
	rs := NewResultSet()
	require.True(t, rs.Insert("a", Record{"text": "第一条"}))
	require.True(t, rs.Insert("b", Record{"text": "第二条"}))
	require.False(t, rs.Insert("a", Record{"text": "重复键"}))
	require.Equal(t, 2, rs.Len())

	recs := rs.Records()
	require.Equal(t, "第一条", recs[0]["text"])
	require.Equal(t, "第二条", recs[1]["text"])
}

func TestFinalizeNoSortKeepsInsertionOrder(t *testing.T) {
	rs := NewResultSet()
	rs.Insert("z", Record{"id": "z"})
	rs.Insert("a", Record{"id": "a"})
	recs := rs.Finalize("", false)
	require.Equal(t, "z", recs[0]["id"])
	require.Equal(t, "a", recs[1]["id"])
}

// 数字值按数值而不是字典序比较:9 < 10
func TestFinalizeNumericSort(t *testing.T) {
	rs := NewResultSet()
	rs.Insert("a", Record{"id": "a", "likes": float64(10)})
	rs.Insert("b", Record{"id": "b", "likes": float64(9)})
	rs.Insert("c", Record{"id": "c", "likes": 100})

	recs := rs.Finalize("likes", false)
	require.Equal(t, "b", recs[0]["id"])
	require.Equal(t, "a", recs[1]["id"])
	require.Equal(t, "c", recs[2]["id"])

	recs = rs.Finalize("likes", true)
	require.Equal(t, "c", recs[0]["id"])
	require.Equal(t, "a", recs[1]["id"])
	require.Equal(t, "b", recs[2]["id"])
}

func TestFinalizeStringSortReverse(t *testing.T) {
	rs := NewResultSet()
	rs.Insert("1", Record{"time": "2026-01-01"})
	rs.Insert("2", Record{"time": "2026-03-01"})
	rs.Insert("3", Record{"time": "2026-02-01"})

	recs := rs.Finalize("time", true)
	require.Equal(t, "2026-03-01", recs[0]["time"])
	require.Equal(t, "2026-02-01", recs[1]["time"])
	require.Equal(t, "2026-01-01", recs[2]["time"])
}
