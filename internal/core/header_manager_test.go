package core

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RecoveryAshes/SiteCloner/internal/crawlers"
	"github.com/RecoveryAshes/SiteCloner/internal/models"
)

// newTestHeaderManager 使用临时目录中的头部配置文件
func newTestHeaderManager(t *testing.T, yaml string, cli []string) *HeaderManager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "headers.yaml")
	if yaml != "" {
		if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
			t.Fatalf("写入头部配置失败: %v", err)
		}
	}
	hm, err := NewHeaderManager(path, cli)
	if err != nil {
		t.Fatalf("创建HeaderManager失败: %v", err)
	}
	return hm
}

func TestHeaderManager_GetHeaders(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		cli  []string
		want map[string]string
	}{
		{
			name: "只有默认头部",
			want: map[string]string{
				"User-Agent": crawlers.DefaultUserAgent,
				"Accept":     "text/html",
			},
		},
		{
			name: "配置文件覆盖默认",
			yaml: "headers:\n  User-Agent: \"FileBot/1.0\"\n  Referer: \"https://example.com/\"\n",
			want: map[string]string{
				"User-Agent": "FileBot/1.0",
				"Accept":     "text/html",
				"Referer":    "https://example.com/",
			},
		},
		{
			name: "命令行覆盖配置文件",
			yaml: "headers:\n  Referer: \"https://example.com/\"\n",
			cli:  []string{"Referer: https://cli.example.com/", "Accept: */*"},
			want: map[string]string{
				"User-Agent": crawlers.DefaultUserAgent,
				"Accept":     "*/*",
				"Referer":    "https://cli.example.com/",
			},
		},
		{
			name: "同名头部整体替换",
			yaml: "headers:\n  Cookie:\n    - \"a=1\"\n    - \"b=2\"\n",
			cli:  []string{"Cookie: c=3"},
			want: map[string]string{
				"User-Agent": crawlers.DefaultUserAgent,
				"Accept":     "text/html",
				"Cookie":     "c=3",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers, err := newTestHeaderManager(t, tt.yaml, tt.cli).GetHeaders()
			if err != nil {
				t.Fatalf("GetHeaders失败: %v", err)
			}
			if len(headers) != len(tt.want) {
				t.Errorf("期望%d个头部, 实际 %v", len(tt.want), headers)
			}
			for name, want := range tt.want {
				if got := strings.Join(headers.Values(name), "|"); got != want {
					t.Errorf("%s: 期望 %q, 实际 %q", name, want, got)
				}
			}
		})
	}
}

func TestHeaderManager_ReturnsCopy(t *testing.T) {
	hm := newTestHeaderManager(t, "", nil)
	first, err := hm.GetHeaders()
	if err != nil {
		t.Fatalf("GetHeaders失败: %v", err)
	}
	first.Set("User-Agent", "changed")

	second, _ := hm.GetHeaders()
	if second.Get("User-Agent") != crawlers.DefaultUserAgent {
		t.Error("修改返回值不应影响缓存")
	}
}

func TestHeaderManager_Errors(t *testing.T) {
	t.Run("命令行格式错误", func(t *testing.T) {
		if _, err := NewHeaderManager("", []string{"InvalidFormat"}); err == nil {
			t.Error("期望返回错误, 但成功了")
		}
	})

	t.Run("命令行禁止的头部", func(t *testing.T) {
		_, err := NewHeaderManager("", []string{"Accept-Encoding: gzip"})
		var validationErr *models.ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("期望ValidationError, 实际 %v", err)
		}
	})

	t.Run("配置文件错误在每次请求时返回", func(t *testing.T) {
		hm := newTestHeaderManager(t, "headers:\n  Host: \"evil.com\"\n", nil)
		for i := 0; i < 2; i++ {
			_, err := hm.GetHeaders()
			var configErr *models.ConfigError
			if !errors.As(err, &configErr) {
				t.Fatalf("第%d次: 期望ConfigError, 实际 %v", i+1, err)
			}
		}
	})
}

func TestHeaderManager_Describe(t *testing.T) {
	hm := newTestHeaderManager(t,
		"headers:\n  Referer: \"https://example.com/\"\n",
		[]string{"Authorization: Bearer secret-token-12345"},
	)

	described, err := hm.Describe()
	if err != nil {
		t.Fatalf("Describe失败: %v", err)
	}

	want := []EffectiveHeader{
		{Name: "Accept", Value: "text/html", Source: SourceDefault},
		{Name: "Authorization", Value: "Bearer ***", Source: SourceCLI},
		{Name: "Referer", Value: "https://example.com/", Source: SourceFile},
		{Name: "User-Agent", Value: crawlers.DefaultUserAgent, Source: SourceDefault},
	}
	if len(described) != len(want) {
		t.Fatalf("期望%d个头部, 实际 %v", len(want), described)
	}
	for i := range want {
		if described[i] != want[i] {
			t.Errorf("第%d个: 期望 %+v, 实际 %+v", i, want[i], described[i])
		}
	}
}

func TestHeaderManager_ConfigPath(t *testing.T) {
	hm, err := NewHeaderManager("", nil)
	if err != nil {
		t.Fatalf("创建HeaderManager失败: %v", err)
	}
	if hm.ConfigPath() != "configs/headers.yaml" {
		t.Errorf("期望默认路径, 实际 %s", hm.ConfigPath())
	}
}
