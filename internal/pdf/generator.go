package pdf

import (
	"fmt"
	"io"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// 名片按移动端比例导出：约 110mm x 190mm 的纵向卡片。
const (
	cardPaperWidthInches  = 4.33
	cardPaperHeightInches = 7.48

	viewportWidth  = 420
	viewportHeight = 760
)

// Export 是一次渲染的产物：PDF 与 JPEG 预览图出自同一个页面。
type Export struct {
	PDF     []byte
	Preview []byte
}

// Generator 使用 go-rod 在无头浏览器中渲染 HTML。
// chromiumPath 留空时按 go-rod 默认方式查找或下载浏览器。
type Generator struct {
	chromiumPath string
}

// NewGenerator 构造渲染器。
func NewGenerator(chromiumPath string) *Generator {
	return &Generator{chromiumPath: chromiumPath}
}

// ExportHTML 渲染 HTML 并返回 PDF 与预览截图。
func (g *Generator) ExportHTML(htmlContent string) (*Export, error) {
	page, cleanup, err := g.renderPage(htmlContent)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	pdfBytes, err := exportPDF(page)
	if err != nil {
		return nil, err
	}

	previewBytes, err := captureScreenshot(page, 80)
	if err != nil {
		return nil, err
	}

	return &Export{PDF: pdfBytes, Preview: previewBytes}, nil
}

func (g *Generator) renderPage(htmlContent string) (_ *rod.Page, cleanup func(), err error) {
	cleanup = func() {}
	defer func() {
		if err != nil {
			cleanup()
		}
	}()

	launch := launcher.New().
		Headless(true).
		NoSandbox(true)

	if g.chromiumPath != "" {
		launch = launch.Bin(g.chromiumPath)
	} else if path, ok := launcher.LookPath(); ok {
		launch = launch.Bin(path)
	}

	browserURL, err := launch.Launch()
	if err != nil {
		return nil, cleanup, fmt.Errorf("launch chromium: %w", err)
	}
	cleanup = func() { launch.Cleanup() }

	browser := rod.New().ControlURL(browserURL)
	if err := browser.Connect(); err != nil {
		return nil, cleanup, fmt.Errorf("connect browser: %w", err)
	}
	cleanup = func() {
		_ = browser.Close()
		launch.Cleanup()
	}

	page, err := browser.Timeout(30 * time.Second).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, cleanup, fmt.Errorf("create page: %w", err)
	}
	cleanup = func() {
		_ = page.Close()
		_ = browser.Close()
		launch.Cleanup()
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: 2,
		Mobile:            true,
	}); err != nil {
		return nil, cleanup, fmt.Errorf("set viewport: %w", err)
	}

	page = page.Timeout(30 * time.Second)
	if err := page.SetDocumentContent(htmlContent); err != nil {
		return nil, cleanup, fmt.Errorf("set document content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, cleanup, fmt.Errorf("wait load: %w", err)
	}

	// 等待网络图片（头像、封面）加载完成，避免截图缺图。
	if err := page.WaitIdle(10 * time.Second); err != nil {
		return nil, cleanup, fmt.Errorf("wait idle: %w", err)
	}

	return page, cleanup, nil
}

func exportPDF(page *rod.Page) ([]byte, error) {
	params := &proto.PagePrintToPDF{
		PrintBackground: true,
		PaperWidth:      float64Ptr(cardPaperWidthInches),
		PaperHeight:     float64Ptr(cardPaperHeightInches),
		MarginTop:       float64Ptr(0),
		MarginBottom:    float64Ptr(0),
		MarginLeft:      float64Ptr(0),
		MarginRight:     float64Ptr(0),
	}
	reader, err := page.PDF(params)
	if err != nil {
		return nil, fmt.Errorf("export pdf: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read pdf bytes: %w", err)
	}
	return data, nil
}

func captureScreenshot(page *rod.Page, quality int) ([]byte, error) {
	req := &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: intPtr(quality),
	}
	data, err := page.Screenshot(false, req)
	if err != nil {
		return nil, fmt.Errorf("page screenshot: %w", err)
	}
	return data, nil
}

func float64Ptr(value float64) *float64 {
	return &value
}

func intPtr(value int) *int {
	return &value
}
