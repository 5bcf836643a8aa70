package render

import (
	"html/template"

	"bizcard/internal/card"
)

// 三套模板都是自包含的 HTML 页面，预览接口直接返回，
// 导出 Worker 交给无头浏览器生成 PDF。视口按移动端名片设定。

var templateFuncs = template.FuncMap{
	// 主题色来自文档，作为 CSS 值原样注入。
	"safeCSS": func(s string) template.CSS { return template.CSS(s) },
	"safeURL": func(s string) template.URL { return template.URL(s) },
}

var layouts = map[card.TemplateType]*template.Template{
	card.TemplateModern:   template.Must(template.New("modern").Funcs(templateFuncs).Parse(modernTemplate)),
	card.TemplateElegant:  template.Must(template.New("elegant").Funcs(templateFuncs).Parse(elegantTemplate)),
	card.TemplateCreative: template.Must(template.New("creative").Funcs(templateFuncs).Parse(creativeTemplate)),
}

// sectionBlocks 是三套模板共用的区块分派片段，只有外层样式不同。
const sectionBlocks = `
{{define "section-body"}}
  {{if eq .Kind "about"}}
    <h3 class="section-title">{{.Title}}</h3>
    <p class="about-text">{{.Text}}</p>
  {{else if eq .Kind "rich-text"}}
    <h3 class="section-title">{{.Title}}</h3>
    <div class="rich-text">{{.HTML}}</div>
  {{else if eq .Kind "services"}}
    <h3 class="section-title">{{.Title}}</h3>
    {{if .Items}}
      <div class="service-list">
        {{range .Items}}
        <div class="service-item">
          <h4>{{.Title}}</h4>
          <p>{{.Desc}}</p>
        </div>
        {{end}}
      </div>
    {{else}}
      <p class="services-empty">No services added yet.</p>
    {{end}}
  {{else if eq .Kind "contact"}}
    <h3 class="section-title">{{.Title}}</h3>
    <div class="contact-list">
      {{range .Contacts}}
        {{if .Href}}
        <a class="contact-item" href="{{.Href}}"><span class="contact-label">{{.Label}}</span>{{.Value}}</a>
        {{else}}
        <div class="contact-item"><span class="contact-label">{{.Label}}</span>{{.Value}}</div>
        {{end}}
      {{end}}
    </div>
  {{else if eq .Kind "social"}}
    <h3 class="section-title social-title">{{.Title}}</h3>
    <div class="social-list">
      {{range .Links}}
      <a class="social-btn" href="{{.URL}}" style="background-color: {{$.ThemeColor | safeCSS}}">{{.Label}}</a>
      {{end}}
    </div>
  {{end}}
{{end}}
`

const modernTemplate = sectionBlocks + `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.FullName}}</title>
<style>
  body { margin: 0; font-family: 'Helvetica Neue', Arial, sans-serif; background: #fff; color: #0f172a; }
  .card { max-width: 420px; margin: 0 auto; background: #fff; }
  .cover { height: 128px; background-size: cover; background-position: center; background-color: #e2e8f0; }
  .content { padding: 0 24px 48px; }
  .avatar { width: 96px; height: 96px; border-radius: 12px; border: 4px solid #fff;
            object-fit: cover; margin-top: -48px; box-shadow: 0 4px 12px rgba(0,0,0,.15); background: #fff; }
  .full-name { font-size: 24px; font-weight: 700; margin: 16px 0 2px; }
  .job-title { font-size: 14px; font-weight: 500; margin: 0 0 2px; }
  .company { font-size: 12px; color: #64748b; margin: 0 0 24px; }
  .section { margin-bottom: 24px; }
  .section-title { font-size: 17px; font-weight: 600; color: #1e293b; margin: 0 0 8px; }
  .about-text { font-size: 14px; line-height: 1.6; color: #475569; white-space: pre-wrap; margin: 0; }
  .rich-text { font-size: 14px; line-height: 1.6; color: #475569; }
  .service-item { padding: 12px; background: #f8fafc; border: 1px solid #f1f5f9; border-radius: 8px; margin-bottom: 8px; }
  .service-item h4 { font-size: 14px; margin: 0 0 4px; color: #1e293b; }
  .service-item p { font-size: 12px; margin: 0; color: #64748b; }
  .services-empty { font-size: 12px; font-style: italic; color: #94a3b8; }
  .contact-item { display: block; padding: 10px 12px; background: #f8fafc; border-radius: 8px;
                  margin-bottom: 8px; font-size: 13px; color: #334155; text-decoration: none; }
  .contact-label { color: #94a3b8; margin-right: 8px; font-size: 11px; text-transform: uppercase; }
  .social-title { text-align: center; }
  .social-list { display: flex; flex-wrap: wrap; justify-content: center; gap: 12px; }
  .social-btn { width: 40px; height: 40px; border-radius: 50%; color: #fff; display: flex;
                align-items: center; justify-content: center; font-size: 12px; text-decoration: none; }
</style>
</head>
<body>
<div class="card">
  <div class="cover"{{if .CoverURL}} style="background-image: url({{.CoverURL | safeURL}})"{{end}}></div>
  <div class="content">
    {{if .AvatarURL}}<img class="avatar" src="{{.AvatarURL}}" alt="{{.FullName}}">{{end}}
    <h1 class="full-name">{{.FullName}}</h1>
    <p class="job-title" style="color: {{.ThemeColor | safeCSS}}">{{.JobTitle}}</p>
    <p class="company">{{.Company}}</p>
    {{range .Sections}}<div class="section">{{template "section-body" .}}</div>
    {{end}}
  </div>
</div>
</body>
</html>
`

const elegantTemplate = sectionBlocks + `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.FullName}}</title>
<style>
  body { margin: 0; font-family: Georgia, 'Times New Roman', serif; background: #fcfcfc; color: #1e293b; }
  .card { max-width: 420px; margin: 0 auto; }
  .header { padding: 32px; text-align: center; background: #fff; border-bottom: 1px solid #e2e8f0; }
  .avatar { width: 112px; height: 112px; border-radius: 50%; object-fit: cover;
            border: 2px solid #f1f5f9; box-shadow: 0 1px 3px rgba(0,0,0,.08); margin-bottom: 16px; }
  .full-name { font-size: 30px; font-weight: 700; letter-spacing: -0.5px; margin: 0 0 8px; }
  .job-title { text-transform: uppercase; letter-spacing: 3px; font-size: 11px; font-weight: 700;
               color: #94a3b8; margin: 0 0 4px; }
  .company { font-size: 14px; font-style: italic; color: #64748b; margin: 0; }
  .sections { padding: 32px 32px 48px; }
  .section { margin-bottom: 24px; }
  .section-title { font-size: 17px; font-weight: 600; margin: 0 0 8px; }
  .about-text { font-size: 14px; line-height: 1.7; color: #475569; white-space: pre-wrap; margin: 0; }
  .rich-text { font-size: 14px; line-height: 1.7; color: #475569; }
  .service-item { padding: 12px 0; border-bottom: 1px solid #e2e8f0; }
  .service-item h4 { font-size: 14px; margin: 0 0 4px; }
  .service-item p { font-size: 12px; margin: 0; color: #64748b; }
  .services-empty { font-size: 12px; font-style: italic; color: #94a3b8; }
  .contact-item { display: block; padding: 8px 0; font-size: 13px; color: #334155;
                  text-decoration: none; border-bottom: 1px dotted #e2e8f0; }
  .contact-label { color: #94a3b8; margin-right: 8px; font-size: 11px; text-transform: uppercase;
                   letter-spacing: 1px; }
  .social-title { text-align: center; }
  .social-list { display: flex; flex-wrap: wrap; justify-content: center; gap: 12px; }
  .social-btn { width: 40px; height: 40px; border-radius: 50%; color: #fff; display: flex;
                align-items: center; justify-content: center; font-size: 12px; text-decoration: none; }
</style>
</head>
<body>
<div class="card">
  <div class="header">
    {{if .AvatarURL}}<img class="avatar" src="{{.AvatarURL}}" alt="{{.FullName}}">{{end}}
    <h1 class="full-name">{{.FullName}}</h1>
    <p class="job-title">{{.JobTitle}}</p>
    <p class="company">{{.Company}}</p>
  </div>
  <div class="sections">
    {{range .Sections}}<div class="section">{{template "section-body" .}}</div>
    {{end}}
  </div>
</div>
</body>
</html>
`

const creativeTemplate = sectionBlocks + `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.FullName}}</title>
<style>
  body { margin: 0; font-family: 'Poppins', 'Helvetica Neue', sans-serif; background: #0f172a; color: #fff; }
  .card { max-width: 420px; margin: 0 auto; padding: 48px 32px; }
  .identity { display: flex; align-items: flex-end; gap: 16px; margin-bottom: 32px; }
  .avatar { width: 80px; height: 80px; border-radius: 50%; object-fit: cover;
            border: 2px solid rgba(255,255,255,.2); }
  .full-name { font-size: 28px; font-weight: 700; line-height: 1; margin: 0 0 8px; }
  .job-title { display: inline-block; padding: 4px 12px; border-radius: 999px; font-size: 11px;
               font-weight: 600; color: #000; }
  .section { background: rgba(255,255,255,.05); border: 1px solid rgba(255,255,255,.1);
             border-radius: 16px; padding: 24px; margin-bottom: 24px; }
  .section-title { font-size: 17px; font-weight: 700; margin: 0 0 16px; opacity: .9; }
  .about-text { font-size: 14px; line-height: 1.6; color: #cbd5e1; white-space: pre-wrap; margin: 0; }
  .rich-text { font-size: 14px; line-height: 1.6; color: #cbd5e1; }
  .service-item { margin-bottom: 16px; }
  .service-item h4 { font-size: 14px; font-weight: 700; color: #fff; margin: 0 0 2px; }
  .service-item p { font-size: 12px; color: #94a3b8; margin: 0; }
  .services-empty { font-size: 12px; font-style: italic; color: #64748b; }
  .contact-item { display: block; padding: 6px 0; font-size: 13px; color: #cbd5e1; text-decoration: none; }
  .contact-label { color: #64748b; margin-right: 8px; font-size: 11px; text-transform: uppercase; }
  .social-title { display: none; }
  .social-list { display: flex; gap: 16px; overflow-x: auto; }
  .social-btn { width: 48px; height: 48px; border-radius: 12px; background: rgba(255,255,255,.1) !important;
                color: #fff; display: flex; align-items: center; justify-content: center; font-size: 12px;
                text-decoration: none; }
</style>
</head>
<body>
<div class="card">
  <div class="identity">
    {{if .AvatarURL}}<img class="avatar" src="{{.AvatarURL}}" alt="{{.FullName}}">{{end}}
    <div>
      <h1 class="full-name">{{.FullName}}</h1>
      <span class="job-title" style="background-color: {{.ThemeColor | safeCSS}}">{{.JobTitle}}</span>
    </div>
  </div>
  {{range .Sections}}<div class="section">{{template "section-body" .}}</div>
  {{end}}
</div>
</body>
</html>
`
