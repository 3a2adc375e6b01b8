package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

const actionEmail = `<div style="font-family: Arial, sans-serif; color: #333333; background-color: #f8f8f8; padding: 20px; text-align: center;">
	<div style="background-color: #ffffff; padding: 20px; border-radius: 8px; max-width: 500px; margin: auto; border: 1px solid #dddddd;">
		<h2 style="color: #333333;">{{.Heading}}</h2>
		<p style="font-size: 16px;">{{.Intro}}</p>
		<a href="{{.Link}}" style="display: inline-block; background-color: #4CAF50; color: #ffffff; padding: 10px 20px; border-radius: 5px; text-decoration: none; font-weight: bold; margin-top: 20px;">{{.Button}}</a>
		<p style="font-size: 14px; color: #555555; margin-top: 20px;">This link will expire in <strong>{{.Expiry}}</strong>.</p>
		<div style="margin-top: 20px; font-size: 12px; color: #777777;">
			<p>If you did not request this, please ignore this email.</p>
			<p>Best regards,<br>Trexense Team</p>
		</div>
	</div>
</div>`

const resultPage = `<html>
	<head>
		<style>
			body { display: flex; justify-content: center; align-items: center; height: 100vh; font-family: Arial, sans-serif; }
			.message-container { text-align: center; }
			h1 { color: {{.Color}}; }
			p { color: #333; }
		</style>
	</head>
	<body>
		<div class="message-container">
			<h1>{{.Heading}}</h1>
			<p>{{.Body}}</p>
		</div>
	</body>
</html>`

var (
	actionTmpl = template.Must(template.New("action").Parse(actionEmail))
	pageTmpl   = template.Must(template.New("page").Parse(resultPage))
)

type actionData struct {
	Heading, Intro, Link, Button, Expiry string
}

type pageData struct {
	Heading, Body, Color string
}

// VerifyEmailBody renders the email-verification message.
func VerifyEmailBody(link, expiry string) (string, error) {
	return render(actionTmpl, actionData{
		Heading: "Email Verification",
		Intro:   "Thank you for registering! Please verify your email address to complete the process.",
		Link:    link,
		Button:  "Verify Email",
		Expiry:  expiry,
	})
}

// ResetPasswordBody renders the password-reset message.
func ResetPasswordBody(link, expiry string) (string, error) {
	return render(actionTmpl, actionData{
		Heading: "Password Reset",
		Intro:   "We received a request to reset your password. Click the button below to proceed.",
		Link:    link,
		Button:  "Reset Password",
		Expiry:  expiry,
	})
}

// SuccessPage renders the page shown after following an email link.
func SuccessPage(heading, body string) []byte {
	out, _ := render(pageTmpl, pageData{Heading: heading, Body: body, Color: "#4CAF50"})
	return []byte(out)
}

// FailurePage renders the page shown when an email link is invalid or expired.
func FailurePage(heading, body string) []byte {
	out, _ := render(pageTmpl, pageData{Heading: heading, Body: body, Color: "#E53935"})
	return []byte(out)
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s template: %w", t.Name(), err)
	}
	return buf.String(), nil
}
