package mailer

import "net/smtp"

type Sender interface {
	Send(to, subject, body string) error
}

// SMTP: mailer polos tanpa auth (MailHog / relay internal). Pengiriman selalu
// best-effort dari sisi pemanggil.
type SMTP struct {
	Host string
	Port string
	From string
}

func (s *SMTP) Send(to, subject, body string) error {
	msg := "From: " + s.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n" +
		body
	return smtp.SendMail(s.Host+":"+s.Port, nil, s.From, []string{to}, []byte(msg))
}
