package storage

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/RecoveryAshes/SiteCloner/internal/models"
	"github.com/RecoveryAshes/SiteCloner/internal/utils"
)

// PageStore 克隆页面存储
// 每个页面以其规范路径的MD5命名,清单写入meta.json
type PageStore struct {
	dir string
	run *models.RunContext
}

// NewPageStore 创建存储并确保目录存在
func NewPageStore(dir string, run *models.RunContext) (*PageStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败 [%s]: %w", dir, err)
	}
	return &PageStore{dir: dir, run: run}, nil
}

// Dir 返回存储目录
func (s *PageStore) Dir() string {
	return s.dir
}

// ManifestPath 返回清单文件路径
func (s *PageStore) ManifestPath() string {
	return filepath.Join(s.dir, models.ManifestFilename)
}

// CanonicalPath 返回URL的规范路径和文件名
//   - 路径总是以"/"开头
//   - 根路径在根主机(或重定向后的主机)下映射为/index.html,其他主机映射为主机名
//   - 文件名为路径的MD5十六进制串
func (s *PageStore) CanonicalPath(u *url.URL) (path string, hash string) {
	path = models.RelativeForm(u)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	if path == "/" {
		if u.Host == "" || s.run.IsRootHost(u.Host) {
			path = "/index.html"
		} else {
			path = u.Host
		}
	}

	return path, HashPath(path)
}

// HashPath 计算路径的MD5
func HashPath(path string) string {
	sum := md5.Sum([]byte(path))
	return hex.EncodeToString(sum[:])
}

// Write 写入页面内容
func (s *PageStore) Write(hash string, data []byte) error {
	target := filepath.Join(s.dir, hash)
	if err := os.WriteFile(target, data, 0644); err != nil {
		return fmt.Errorf("%w [%s]: %v", models.ErrStorageWrite, target, err)
	}
	utils.Debugf("写入页面: %s (%s)", target, utils.FormatBytes(int64(len(data))))
	return nil
}

// WriteManifest 写入清单
func (s *PageStore) WriteManifest(manifest models.Manifest) error {
	if err := manifest.SaveToFile(s.ManifestPath()); err != nil {
		return fmt.Errorf("%w [%s]: %v", models.ErrStorageWrite, s.ManifestPath(), err)
	}
	utils.Debugf("清单已写入: %s (%d 条记录)", s.ManifestPath(), len(manifest))
	return nil
}
