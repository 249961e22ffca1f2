// internal/advisor/prompt.go
package advisor

import (
	"fmt"
	"strings"
)

const systemPrompt = "انت خبير قبول جامعي سعودي دقيق وصارم بالنسب."

const admissionGuidelines = "حدود القبول التقريبية بالسعودية: طب (GPA>=95, GAT>=90, TAHSILI>=90)، أسنان (93/88/88)، " +
	"صيدلة (92/85/85)، هندسة (85/80/80)، حاسب (85/80/75)، علوم (80/75/0)، إدارة أعمال (75/70/0)، إنسانيات (60/0/0). " +
	"التخصصات المتوقعة: "

// buildPrompt renders the user message sent to every completion provider.
func buildPrompt(req Request) string {
	var subjects strings.Builder
	for _, s := range req.Subjects {
		if strings.TrimSpace(s.Subject) == "" {
			continue
		}
		score := "N/A"
		if s.Score != nil {
			score = fmt.Sprintf("%g", *s.Score)
		}
		fmt.Fprintf(&subjects, "%s:%s, ", s.Subject, score)
	}

	var b strings.Builder
	b.WriteString("أنت مستشار قبول جامعي سعودي. قدم تخصصاً واحداً فقط باللغة الإنجليزية بكلمة أو كلمتين ")
	b.WriteString("(مثل General Doctor, Mechanical Engineer, Computer Science) بدون أي شرح أو JSON.\n")
	b.WriteString("البيانات:\n")
	fmt.Fprintf(&b, "- المعدل التراكمي: %g\n", req.GPA)
	fmt.Fprintf(&b, "- قدرات: %g\n", req.GAT)
	fmt.Fprintf(&b, "- تحصيلي: %g\n", req.Tahsili)
	fmt.Fprintf(&b, "- درجات المواد: %s\n", subjects.String())
	if req.certificateText != "" {
		fmt.Fprintf(&b, "- نص الشهادة: %s\n", truncate(req.certificateText, 1500))
	}
	b.WriteString(admissionGuidelines)
	b.WriteString(strings.Join(KnownMajors, ", "))
	b.WriteString(".\nأجب بكلمة تخصص واحدة فقط.")
	return b.String()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
