package notify

import (
	"bytes"
	"fmt"
	"text/template"
)

// Message is a rendered email.
type Message struct {
	Subject string
	Body    string
}

var (
	welcomeTmpl = template.Must(template.New("welcome").Parse(
		`Hello {{.Name}},

Welcome! Your account has been created with the email {{.Email}}.
`))

	verifyTmpl = template.Must(template.New("verify").Parse(
		`Your account verification code is {{.OTP}}.

Enter it to verify your account. The code expires in {{.TTL}}.
`))

	resetTmpl = template.Must(template.New("reset").Parse(
		`Your password reset code is {{.OTP}}.

Use it to set a new password. The code expires in {{.TTL}}.
If you did not ask for a reset you can ignore this email.
`))
)

// WelcomeMessage is sent after registration.
func WelcomeMessage(name, email string) (Message, error) {
	body, err := render(welcomeTmpl, map[string]string{"Name": name, "Email": email})
	if err != nil {
		return Message{}, err
	}
	return Message{Subject: "Welcome", Body: body}, nil
}

// VerifyOTPMessage carries an account verification code.
func VerifyOTPMessage(otp, ttl string) (Message, error) {
	body, err := render(verifyTmpl, map[string]string{"OTP": otp, "TTL": ttl})
	if err != nil {
		return Message{}, err
	}
	return Message{Subject: "Account Verification OTP", Body: body}, nil
}

// ResetOTPMessage carries a password reset code.
func ResetOTPMessage(otp, ttl string) (Message, error) {
	body, err := render(resetTmpl, map[string]string{"OTP": otp, "TTL": ttl})
	if err != nil {
		return Message{}, err
	}
	return Message{Subject: "Password Reset OTP", Body: body}, nil
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("notify: rendering %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
