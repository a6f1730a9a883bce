package models

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
)

// ManifestFilename 清单文件名
const ManifestFilename = "meta.json"

// Header 单个响应头部
// JSON形式为单键对象: {"Content-Type": "text/html"}
type Header struct {
	Name  string
	Value string
}

// MarshalJSON 实现json.Marshaler
func (h Header) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{h.Name: h.Value})
}

// UnmarshalJSON 实现json.Unmarshaler
func (h *Header) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if len(m) != 1 {
		return fmt.Errorf("头部对象必须只有一个键,实际有 %d 个", len(m))
	}
	for name, value := range m {
		h.Name = name
		h.Value = value
	}
	return nil
}

// Headers 有序头部列表
type Headers []Header

// Get 返回第一个同名头部的值(不区分大小写)
func (hs Headers) Get(name string) string {
	key := http.CanonicalHeaderKey(name)
	for _, h := range hs {
		if http.CanonicalHeaderKey(h.Name) == key {
			return h.Value
		}
	}
	return ""
}

// HeadersFromHTTP 将http.Header按名称排序后展开为列表
// skip返回true的头部被丢弃
func HeadersFromHTTP(header http.Header, skip func(name string) bool) Headers {
	names := make([]string, 0, len(header))
	for name := range header {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make(Headers, 0, len(header))
	for _, name := range names {
		if skip != nil && skip(name) {
			continue
		}
		for _, value := range header[name] {
			result = append(result, Header{Name: name, Value: value})
		}
	}
	return result
}

// PageRecord 已存储页面的记录
type PageRecord struct {
	Hash    string  `json:"hash"`
	Headers Headers `json:"headers"`
}

// Manifest 路径 -> 页面记录
type Manifest map[string]PageRecord

// Record 记录页面,同一路径后写覆盖
func (m Manifest) Record(path, hash string, headers Headers) {
	if headers == nil {
		headers = Headers{}
	}
	m[path] = PageRecord{Hash: hash, Headers: headers}
}

// ToJSON 序列化为JSON
func (m Manifest) ToJSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// SaveToFile 保存到文件
func (m Manifest) SaveToFile(filepath string) error {
	data, err := m.ToJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, data, 0644)
}

// LoadManifestFromFile 从文件加载清单
func LoadManifestFromFile(filepath string) (Manifest, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}

	m := make(Manifest)
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
