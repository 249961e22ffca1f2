// internal/notify/templates.go
package notify

import (
	htmltemplate "html/template"
	texttemplate "text/template"
)

const emailSubject = "EduPath: نتائج توصيات التخصصات الجامعية"

const emailText = `مرحباً {{.Name}}،

مجموعك الموزون: {{printf "%.2f" .CompositeScore}} ({{.LevelLabel}})
{{if .Recommendations}}
أفضل التخصصات المناسبة لك:
{{range $i, $r := .Recommendations}}{{inc $i}}. {{$r.Major}} - {{$r.University}} ({{$r.City}}) - توافق {{$r.MatchPercentage}}%
{{end}}{{else}}
لم نجد تخصصات تطابق درجاتك ومسارك حالياً. جرّب تعديل اهتماماتك أو راجع الحد الأدنى للقبول.
{{end}}
فريق EduPath
`

const emailHTML = `<div dir="rtl" style="font-family:Tahoma,Arial,sans-serif">
<p>مرحباً {{.Name}}،</p>
<p>مجموعك الموزون: <strong>{{printf "%.2f" .CompositeScore}}</strong> ({{.LevelLabel}})</p>
{{if .Recommendations}}<table border="1" cellpadding="6" style="border-collapse:collapse">
<tr><th>#</th><th>التخصص</th><th>الجامعة</th><th>المدينة</th><th>التوافق</th></tr>
{{range $i, $r := .Recommendations}}<tr><td>{{inc $i}}</td><td>{{$r.Major}}</td><td>{{$r.University}}</td><td>{{$r.City}}</td><td>{{$r.MatchPercentage}}%</td></tr>
{{end}}</table>{{else}}<p>لم نجد تخصصات تطابق درجاتك ومسارك حالياً.</p>{{end}}
<p>فريق EduPath</p>
</div>`

var funcs = map[string]interface{}{
	"inc": func(i int) int { return i + 1 },
}

var (
	textTmpl = texttemplate.Must(texttemplate.New("results.txt").Funcs(funcs).Parse(emailText))
	htmlTmpl = htmltemplate.Must(htmltemplate.New("results.html").Funcs(funcs).Parse(emailHTML))
)
