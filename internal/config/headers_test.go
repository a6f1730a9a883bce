package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RecoveryAshes/SiteCloner/internal/models"
)

func writeHeaderFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "headers.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("写入测试配置失败: %v", err)
	}
	return path
}

func TestHeaderFile_Load(t *testing.T) {
	t.Run("首次运行生成模板", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "configs", "headers.yaml")

		headers, err := NewHeaderFile(path).Load()
		if err != nil {
			t.Fatalf("加载失败: %v", err)
		}
		if len(headers) != 0 {
			t.Errorf("模板中的头部都是注释, 实际 %v", headers)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("模板应该被生成: %v", err)
		}
		if !strings.Contains(string(data), "headers:") {
			t.Errorf("模板内容不正确: %s", data)
		}

		// 再次加载读取生成的模板
		if _, err := NewHeaderFile(path).Load(); err != nil {
			t.Fatalf("加载生成的模板失败: %v", err)
		}
	})

	t.Run("名称规范化", func(t *testing.T) {
		path := writeHeaderFile(t, "headers:\n  user-agent: \"Test Bot/1.0\"\n  X-CUSTOM: \"test value\"\n")

		headers, err := NewHeaderFile(path).Load()
		if err != nil {
			t.Fatalf("加载失败: %v", err)
		}
		if got := headers["User-Agent"]; len(got) != 1 || got[0] != "Test Bot/1.0" {
			t.Errorf("期望 User-Agent=[Test Bot/1.0], 实际 %v", got)
		}
		if got := headers.Get("X-Custom"); got != "test value" {
			t.Errorf("期望 X-Custom='test value', 实际 '%s'", got)
		}
	})

	t.Run("列表值作为多个同名头部", func(t *testing.T) {
		path := writeHeaderFile(t, "headers:\n  Cookie:\n    - \"a=1\"\n    - \"b=2\"\n  DNT: 1\n")

		headers, err := NewHeaderFile(path).Load()
		if err != nil {
			t.Fatalf("加载失败: %v", err)
		}
		if got := strings.Join(headers.Values("Cookie"), "|"); got != "a=1|b=2" {
			t.Errorf("期望两个Cookie值, 实际 %s", got)
		}
		if got := headers.Get("Dnt"); got != "1" {
			t.Errorf("数字值应按字面量处理, 实际 %q", got)
		}
	})

	t.Run("展开环境变量", func(t *testing.T) {
		t.Setenv("SITECLONER_TEST_COOKIE", "session=abc")
		path := writeHeaderFile(t, "headers:\n  Cookie: \"${SITECLONER_TEST_COOKIE}\"\n")

		headers, err := NewHeaderFile(path).Load()
		if err != nil {
			t.Fatalf("加载失败: %v", err)
		}
		if got := headers.Get("Cookie"); got != "session=abc" {
			t.Errorf("期望 Cookie='session=abc', 实际 '%s'", got)
		}
	})

	t.Run("空文件", func(t *testing.T) {
		for _, content := range []string{"", "headers:", "headers:\n  X-Empty:\n"} {
			headers, err := NewHeaderFile(writeHeaderFile(t, content)).Load()
			if err != nil {
				t.Fatalf("加载空配置失败 (%q): %v", content, err)
			}
			if headers == nil || len(headers) != 0 {
				t.Errorf("期望空头部 (%q), 实际 %v", content, headers)
			}
		}
	})

	errorCases := []struct {
		name    string
		content string
		reason  string
	}{
		{"YAML格式错误", "headers:\n  User-Agent: \"Test Bot\n  X-Custom: missing quote\n", ""},
		{"禁止的头部", "headers:\n  Accept-Encoding: \"gzip\"\n", "自动管理"},
		{"非法名称", "headers:\n  \"Bad Header\": \"x\"\n", "非法字符"},
		{"嵌套的值", "headers:\n  X-Nested:\n    a: b\n", "字符串"},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			path := writeHeaderFile(t, tt.content)
			_, err := NewHeaderFile(path).Load()

			var configErr *models.ConfigError
			if !errors.As(err, &configErr) {
				t.Fatalf("期望ConfigError, 实际 %v", err)
			}
			if configErr.FilePath != path {
				t.Errorf("错误应指向 %s, 实际 %s", path, configErr.FilePath)
			}
			if tt.reason != "" && !strings.Contains(err.Error(), tt.reason) {
				t.Errorf("期望错误包含 %q, 实际 %v", tt.reason, err)
			}
		})
	}

	t.Run("禁止的头部返回ValidationError", func(t *testing.T) {
		_, err := NewHeaderFile(writeHeaderFile(t, "headers:\n  host: \"evil.com\"\n")).Load()
		var validationErr *models.ValidationError
		if !errors.As(err, &validationErr) || validationErr.HeaderName != "Host" {
			t.Fatalf("期望Host的ValidationError, 实际 %v", err)
		}
	})

	t.Run("文件过大", func(t *testing.T) {
		path := writeHeaderFile(t, string(make([]byte, MaxHeaderFileSize+1)))
		if _, err := NewHeaderFile(path).Load(); err == nil {
			t.Fatal("期望超大文件被拒绝")
		}
	})
}

func TestHeaderFile_Path(t *testing.T) {
	if got := NewHeaderFile("").Path(); got != DefaultHeaderFile {
		t.Errorf("期望默认路径 %s, 实际 %s", DefaultHeaderFile, got)
	}
}
