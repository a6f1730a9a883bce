package models

import (
	"encoding/json"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("解析URL失败 %s: %v", raw, err)
	}
	return u
}

func TestNormalizeTarget(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		wantRoot  string
		wantError string
	}{
		{"补全协议", "example.com", "http://example.com", "http://example.com/status_404"},
		{"保留https", "https://example.com/", "https://example.com/", "https://example.com/status_404"},
		{"保留端口", "127.0.0.1:8080", "http://127.0.0.1:8080", "http://127.0.0.1:8080/status_404"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, errorPage, err := NormalizeTarget(tt.target)
			if err != nil {
				t.Fatalf("NormalizeTarget() error = %v", err)
			}
			if root.String() != tt.wantRoot {
				t.Errorf("root = %s, want %s", root, tt.wantRoot)
			}
			if errorPage.String() != tt.wantError {
				t.Errorf("errorPage = %s, want %s", errorPage, tt.wantError)
			}
		})
	}
}

func TestHumanString(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"http://example.com", "http://example.com/"},
		{"http://example.com/test", "http://example.com/test"},
		{"http://example.com/a?q=%20x#frag", "http://example.com/a?q= x#frag"},
		{"/style.css", "/style.css"},
		{"http://example.com/search?q=a%26b&x=1", "http://example.com/search?q=a%26b&x=1"},
		{"http://example.com/p?q=c%23d", "http://example.com/p?q=c%23d"},
		{"http://example.com/p?a=1%2B1%3D2", "http://example.com/p?a=1%2B1%3D2"},
		{"http://example.com/p?q=%E4%B8%AD%2520", "http://example.com/p?q=中%2520"},
		{"http://example.com/p?q=%E9", "http://example.com/p?q=%E9"},
		{"http://example.com/p?q=%zz", "http://example.com/p?q=%zz"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := HumanString(mustParse(t, tt.raw)); got != tt.want {
				t.Errorf("HumanString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCloneConfig_Validate(t *testing.T) {
	valid := DefaultCloneConfig()

	negativeDepth := valid
	negativeDepth.MaxDepth = -1

	noRetries := valid
	noRetries.MaxRetries = 0

	noOutput := valid
	noOutput.OutputDir = ""

	headlessNoTimeout := valid
	headlessNoTimeout.Headless = true
	headlessNoTimeout.PageLoadTimeout = 0

	tests := []struct {
		name    string
		config  CloneConfig
		wantErr bool
	}{
		{"默认配置", valid, false},
		{"深度为负", negativeDepth, true},
		{"重试次数为0", noRetries, true},
		{"输出目录为空", noOutput, true},
		{"无头模式缺少加载超时", headlessNoTimeout, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCrawlTask_Retry(t *testing.T) {
	task := NewCrawlTask(mustParse(t, "http://example.com/a"), 2)
	retried := task.Retry().Retry()

	if retried.Attempt != 2 {
		t.Errorf("Attempt = %d, want 2", retried.Attempt)
	}
	if retried.Depth != 2 {
		t.Errorf("Depth = %d, want 2", retried.Depth)
	}
	if task.Attempt != 0 {
		t.Error("原任务不应被修改")
	}
}

func TestVisitedSet(t *testing.T) {
	v := NewVisitedSet()
	v.Add("http://example.com/")
	v.Add("http://example.com/test")
	v.Add("http://example.com/")

	if v.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", v.Len())
	}
	want := []string{"http://example.com/", "http://example.com/test"}
	got := v.List()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestRunContext_RootHost(t *testing.T) {
	run := NewRunContext(mustParse(t, "http://example.com"), mustParse(t, "http://example.com/status_404"), 1)

	if !run.IsRootHost("example.com") {
		t.Error("根主机应被接受")
	}
	if run.IsRootHost("www.example.com") {
		t.Error("未重定向时不应接受其他主机")
	}

	run.MovedRoot = mustParse(t, "http://www.example.com/")
	if !run.IsRootHost("www.example.com") {
		t.Error("重定向后的主机应被接受")
	}
	if run.ActiveRoot().Host != "www.example.com" {
		t.Errorf("ActiveRoot() = %s", run.ActiveRoot())
	}
}

func TestHeader_JSON(t *testing.T) {
	headers := Headers{{Name: "Content-Type", Value: "text/html"}, {Name: "Server", Value: "nginx"}}

	data, err := json.Marshal(headers)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `[{"Content-Type":"text/html"},{"Server":"nginx"}]`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}

	var decoded Headers
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.Get("content-type") != "text/html" {
		t.Errorf("Get() = %q", decoded.Get("content-type"))
	}

	var bad Header
	if err := json.Unmarshal([]byte(`{"A":"1","B":"2"}`), &bad); err == nil {
		t.Error("多键对象应返回错误")
	}
}

func TestHeadersFromHTTP(t *testing.T) {
	h := http.Header{}
	h.Set("Server", "nginx")
	h.Set("Date", "today")
	h.Set("Content-Type", "text/html")

	got := HeadersFromHTTP(h, func(name string) bool { return strings.EqualFold(name, "date") })
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Name != "Content-Type" || got[1].Name != "Server" {
		t.Errorf("头部未按名称排序: %v", got)
	}
}

func TestManifest_SaveAndLoad(t *testing.T) {
	m := make(Manifest)
	m.Record("/index.html", "d1546d731a9f30cc80127d57142a482b", Headers{{Name: "Content-Type", Value: "text/html"}})
	m.Record("/status_404", "hash404", nil)

	path := filepath.Join(t.TempDir(), ManifestFilename)
	if err := m.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	loaded, err := LoadManifestFromFile(path)
	if err != nil {
		t.Fatalf("LoadManifestFromFile() error = %v", err)
	}
	if loaded["/index.html"].Hash != "d1546d731a9f30cc80127d57142a482b" {
		t.Errorf("hash不匹配: %v", loaded["/index.html"])
	}
	if loaded["/status_404"].Headers == nil {
		t.Error("空头部应序列化为[]而不是null")
	}
}

func TestCloneReport_JSON(t *testing.T) {
	report := NewCloneReport("http://example.com", DefaultCloneConfig())
	if report.RunID == "" {
		t.Fatal("运行ID不应为空")
	}

	data, err := report.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	var decoded CloneReport
	if err := decoded.FromJSON(data); err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	if decoded.RunID != report.RunID {
		t.Errorf("RunID = %s, want %s", decoded.RunID, report.RunID)
	}
}
