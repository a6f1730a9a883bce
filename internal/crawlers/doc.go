// Package crawlers 提供站点克隆的抓取、链接改写和资源提取功能
//
// # 概述
//
// crawlers包负责单个URL的抓取和内容处理,调度由core.Cloner完成。
// 支持直连(Colly)和渲染(go-rod)两种抓取策略,两者都实现Fetcher接口。
//
// # 核心组件
//
// ## StaticFetcher
//
// 基于Colly的直连抓取器。错误状态码的响应体同样返回(用于克隆404页面),
// br和deflate编码的响应体在这里解压,gzip由传输层或Colly解压。
// 只有HTML会被Colly转换为UTF-8,其他资源保持原始字节。
// 连接失败时FetchResult.Err包装models.ErrNetwork。
//
//	client := NewHTTPClient(10 * time.Second)
//	fetcher := NewStaticFetcher(client, headerProvider)
//	result := fetcher.Fetch(ctx, u)
//
// ## DynamicFetcher
//
// 通过Browser加载页面,返回渲染后的DOM。响应头部取自加载期间捕获的、
// URL与目标相同的第一个网络响应。非HTML资源改用直连抓取原始字节。
//
//	browser, err := LaunchRodBrowser(headerProvider)
//	if err != nil { /* 改用StaticFetcher */ }
//	defer browser.Close()
//
//	fetcher := NewDynamicFetcher(browser, static, 2*time.Second)
//
// 加载失败时按错误类型记录日志:
//   - models.ErrRenderTimeout: 请求超时
//   - models.ErrMalformedURL: URL格式错误
//   - 其他: 渲染失败
//
// ## URLQueue / URLResolver
//
// URLQueue按入队顺序保存CrawlTask,出队时跳过已克隆的URL。
// URLResolver把页面中的引用解析为绝对URL并决定是否入队:
//
//	queue := NewURLQueue(run.Visited)
//	resolver := NewURLResolver(run, queue)
//
//	rel, ok := resolver.Resolve("/about", depth, true) // "/about", true
//	resolver.Enqueue("img/bg.png", depth)              // CSS引用
//
// 规则:
//   - data、javascript、file协议原样保留,从不抓取
//   - href只接受当前根主机(重定向后为新主机)且不带片段的链接
//   - src和action接受任意主机
//   - depth+1超过最大深度或已克隆的URL不入队
//
// ## RewriteHTML
//
// 按记号逐个复制HTML,只重新序列化被改写的标签,其余内容保持原始字节。
// name属性包含redirect的元素,其value中的绝对地址改写为根相对形式。
//
// ## ExtractCSSURLs
//
// 使用tdewolff/parse的CSS词法分析器提取url(...)和@import引用。
//
// # 请求头部
//
// DefaultRequestHeaders是每个克隆请求的基础头部(Firefox User-Agent,
// Accept: text/html)。RequestHeaders用HeaderProvider的同名头部整体替换默认值,
// 直连抓取、根地址探测和无头浏览器都经由它设置头部。
//
// # 响应头部
//
// FilterHeaders丢弃与单次传输相关的头部(Date, ETag, Content-Length等),
// 其余头部按名称排序写入清单,回放时原样返回。
//
// # 并发安全
//
// RodBrowser可并发使用。URLQueue和URLResolver依赖RunContext,
// 只应在克隆协程中调用。
package crawlers
