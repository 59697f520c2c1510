// Package mailer 发送联系表单通知邮件。
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"
)

// Message 描述一封通知邮件的内容。
type Message struct {
	FromName  string
	FromEmail string
	Subject   string
	Body      string
	SentAt    time.Time
}

// Mailer 通过 SMTP 发送邮件。Host 为空时视为禁用，Send 直接返回 nil。
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       string
}

// New 构造 Mailer。
func New(host string, port int, username, password, from, to string) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
	}
}

// Enabled 报告是否配置了 SMTP 服务器。
func (m *Mailer) Enabled() bool {
	return m != nil && m.host != ""
}

// Send 发送一封联系表单通知邮件。
func (m *Mailer) Send(msg Message) error {
	if !m.Enabled() {
		return nil
	}

	sentAt := msg.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", m.to)
	fmt.Fprintf(&b, "Reply-To: %s\r\n", msg.FromEmail)
	fmt.Fprintf(&b, "Subject: %s\r\n", sanitizeHeader("[contact] "+msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", sentAt.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "New contact message from %s <%s>\r\n\r\n", msg.FromName, msg.FromEmail)
	b.WriteString(msg.Body)
	b.WriteString("\r\n")

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	var a smtp.Auth
	if m.username != "" {
		a = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	return smtp.SendMail(addr, a, m.from, []string{m.to}, []byte(b.String()))
}

// sanitizeHeader 去掉换行，防止邮件头注入。
func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
