package models

import "errors"

// 错误分类
var (
	ErrNetwork         = errors.New("网络错误")
	ErrParse           = errors.New("URL解析失败")
	ErrRender          = errors.New("页面渲染失败")
	ErrRenderTimeout   = errors.New("页面加载超时")
	ErrMalformedURL    = errors.New("URL格式错误")
	ErrStorageWrite    = errors.New("页面写入失败")
	ErrRootUnreachable = errors.New("无法连接目标主机")
	ErrInvalidTarget   = errors.New("无效的目标")
	ErrLowDiskSpace    = errors.New("磁盘剩余空间不足")
)
