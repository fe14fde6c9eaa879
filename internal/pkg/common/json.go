package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// ParseJSONBytes 解析 JSON 位元組切片；數字保留為 json.Number，不允許尾隨資料
func ParseJSONBytes(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := dec.Decode(v); err != nil {
		return err
	}

	// 確保沒有多餘資料
	for {
		t, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if t != nil {
			return fmt.Errorf("unexpected extra JSON data")
		}
	}
}

// NDJSONWriter 逐行輸出 JSON 記錄，每筆寫入後立即 flush
type NDJSONWriter struct {
	w     io.Writer
	flush func()
}

// NewNDJSONWriter 創建 NDJSON 輸出器，flush 可為 nil
func NewNDJSONWriter(w io.Writer, flush func()) *NDJSONWriter {
	return &NDJSONWriter{w: w, flush: flush}
}

// Write 寫入一筆記錄
func (n *NDJSONWriter) Write(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal ndjson record: %w", err)
	}
	data = append(data, '\n')
	if _, err := n.w.Write(data); err != nil {
		return err
	}
	if n.flush != nil {
		n.flush()
	}
	return nil
}
