// Package notify 는 등기 변경 알림과 등록 확인 메일 발송을 담당한다.
package notify

import (
	"fmt"
	"html"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"

	"github.com/joonzero/patrol/internal/model"
)

// Gateway 는 알림 발송 인터페이스.
// 발송 실패는 호출 측(스케줄 실행기)이 기록만 하고 진행을 계속한다.
type Gateway interface {
	// SendChangeAlert 는 등기 변경 감지 알림을 발송한다.
	SendChangeAlert(to string, sub model.SubscriptionSummary, record model.RegistrationRecord) error

	// SendRegistrationConfirmation 은 모니터링 등록 확인 메일을 발송한다.
	// record는 등록 시점에 확보한 초기 스냅샷. 없으면 nil을 넘긴다.
	SendRegistrationConfirmation(to string, sub model.SubscriptionSummary, record model.RegistrationRecord) error
}

// SMTPMailer 는 SMTP 서버를 통해 메일을 보내는 Gateway 구현.
type SMTPMailer struct {
	host string
	port int
	user string
	pass string
	from string
}

// NewSMTPMailer 는 SMTPMailer를 생성한다. from이 비어 있으면 user를 발신자로 쓴다.
func NewSMTPMailer(host string, port int, user, pass, from string) *SMTPMailer {
	if from == "" {
		from = user
	}
	return &SMTPMailer{host: host, port: port, user: user, pass: pass, from: from}
}

// SendChangeAlert 는 등기 변경 감지 알림을 발송한다.
func (m *SMTPMailer) SendChangeAlert(to string, sub model.SubscriptionSummary, record model.RegistrationRecord) error {
	subject := fmt.Sprintf("[Patrol] 등기 변경 감지: %s", sub.Address)
	body := changeAlertBody(sub, record)
	return m.send(to, subject, body)
}

// SendRegistrationConfirmation 은 모니터링 등록 확인 메일을 발송한다.
func (m *SMTPMailer) SendRegistrationConfirmation(to string, sub model.SubscriptionSummary, record model.RegistrationRecord) error {
	subject := fmt.Sprintf("[Patrol] 모니터링 등록 완료: %s", sub.Address)
	body := confirmationBody(sub, record)
	return m.send(to, subject, body)
}

func (m *SMTPMailer) send(to, subject, htmlBody string) error {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Patrol <%s>", m.from)
	mail.To = []string{to}
	mail.Subject = subject
	mail.HTML = []byte(htmlBody)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	err := mail.Send(addr, smtp.PlainAuth("", m.user, m.pass, m.host))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		// 로컬 릴레이 등 인증 없는 서버 대응
		err = mail.Send(addr, nil)
	}
	if err != nil {
		return fmt.Errorf("메일 발송에 실패했습니다: %w", err)
	}
	return nil
}

// recordDisplayFields 는 알림 본문에 싣는 등기 레코드 필드와 한글 라벨.
// 장부성 필드(id, timestamp)는 싣지 않는다.
var recordDisplayFields = []struct {
	key   string
	label string
}{
	{"a101recev_date", "접수일자"},
	{"a101recev_no", "접수번호"},
	{"regt_name", "관할 등기소"},
	{"recev_regt_name", "접수 등기소"},
	{"e033rgs_sel_name", "등기목적"},
	{"e008cd_name", "처리상태"},
	{"court_name", "관할 법원"},
	{"a105real_indi_cont", "부동산 표시"},
	{"statlin", "상태"},
}

func changeAlertBody(sub model.SubscriptionSummary, record model.RegistrationRecord) string {
	var b strings.Builder
	b.WriteString("<h2>등기 변경이 감지되었습니다</h2>")
	b.WriteString("<p>모니터링 중인 부동산의 등기 기록에 변경이 확인되었습니다.</p>")
	writeSummaryTable(&b, sub)

	b.WriteString("<h3>최신 등기 내역</h3>")
	writeRecordTable(&b, record)
	b.WriteString("<p>자세한 내용은 인터넷등기소에서 확인하시기 바랍니다.</p>")
	return b.String()
}

func confirmationBody(sub model.SubscriptionSummary, record model.RegistrationRecord) string {
	var b strings.Builder
	b.WriteString("<h2>모니터링 등록이 완료되었습니다</h2>")
	b.WriteString("<p>아래 부동산의 등기 변경 여부를 매일 점검하여 변경 시 알려 드립니다.</p>")
	writeSummaryTable(&b, sub)
	if record != nil {
		b.WriteString("<h3>현재 등기 내역</h3>")
		writeRecordTable(&b, record)
	}
	return b.String()
}

func writeRecordTable(b *strings.Builder, record model.RegistrationRecord) {
	b.WriteString("<table border=\"1\" cellpadding=\"4\" cellspacing=\"0\">")
	for _, f := range recordDisplayFields {
		v, ok := record[f.key]
		if !ok {
			continue
		}
		fmt.Fprintf(b, "<tr><th>%s</th><td>%s</td></tr>",
			html.EscapeString(f.label), html.EscapeString(fmt.Sprint(v)))
	}
	b.WriteString("</table>")
}

func writeSummaryTable(b *strings.Builder, sub model.SubscriptionSummary) {
	b.WriteString("<table border=\"1\" cellpadding=\"4\" cellspacing=\"0\">")
	fmt.Fprintf(b, "<tr><th>소재지</th><td>%s</td></tr>", html.EscapeString(sub.Address))
	fmt.Fprintf(b, "<tr><th>부동산 고유번호</th><td>%s</td></tr>", html.EscapeString(sub.AddressPin))
	fmt.Fprintf(b, "<tr><th>소유자</th><td>%s</td></tr>", html.EscapeString(sub.OwnerName))
	b.WriteString("</table>")
}

// compile-time interface check
var _ Gateway = (*SMTPMailer)(nil)
