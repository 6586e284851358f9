package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

const brandName = "Kingfluencer"

var otpTemplate = template.Must(template.New("otp").Parse(`<!doctype html>
<html>
  <body style="margin:0;padding:0;background:#f7f7f8;font-family:system-ui,sans-serif;color:#0f172a;">
    <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
      <tr><td align="center" style="padding:32px 16px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width:560px;background:#ffffff;border-radius:12px;">
          <tr><td style="padding:24px;text-align:center;">
            <div style="font-size:18px;font-weight:700;">{{.Brand}}</div>
            <div style="margin-top:6px;font-size:13px;color:#6b7280;">Secure login code</div>
          </td></tr>
          <tr><td style="padding:8px 24px 24px 24px;text-align:center;">
            <div style="display:inline-block;padding:18px 24px;border:1px solid #e5e7eb;border-radius:12px;background:#fafafa;font-size:28px;letter-spacing:4px;font-weight:800;">{{.Code}}</div>
            <div style="margin-top:12px;font-size:12px;color:#6b7280;">This code expires in {{.Minutes}} minutes.</div>
          </td></tr>
          <tr><td style="padding:0 24px 24px 24px;text-align:center;">
            <div style="font-size:12px;color:#9ca3af;">If you did not request this code, you can ignore this email.</div>
          </td></tr>
        </table>
        <div style="margin-top:12px;font-size:11px;color:#9ca3af;">&copy; {{.Year}} {{.Brand}}</div>
      </td></tr>
    </table>
  </body>
</html>`))

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<!doctype html>
<html>
  <body style="margin:0;padding:0;background:#f7f7f8;font-family:system-ui,sans-serif;color:#0f172a;">
    <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
      <tr><td align="center" style="padding:32px 16px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width:560px;background:#ffffff;border-radius:12px;">
          <tr><td style="padding:24px;">
            <div style="font-size:18px;font-weight:700;text-align:center;">{{.Brand}}</div>
            <p style="font-size:14px;color:#374151;">Hi {{.Name}},</p>
            <p style="font-size:14px;color:#374151;">You have been added as {{.RoleArticle}} <strong>{{.Role}}</strong> on {{.Brand}}.</p>
            <p style="font-size:14px;color:#374151;">Request a login code with this email address to get started.</p>
          </td></tr>
        </table>
        <div style="margin-top:12px;font-size:11px;color:#9ca3af;">&copy; {{.Year}} {{.Brand}}</div>
      </td></tr>
    </table>
  </body>
</html>`))

// RenderOTP renders the login-code email body.
func RenderOTP(code string, minutes int) (string, error) {
	var buf bytes.Buffer
	err := otpTemplate.Execute(&buf, map[string]any{
		"Brand":   brandName,
		"Code":    code,
		"Minutes": minutes,
		"Year":    time.Now().Year(),
	})
	if err != nil {
		return "", fmt.Errorf("rendering otp email: %w", err)
	}
	return buf.String(), nil
}

// RenderWelcome renders the "you have been added" notification for a new
// client or influencer account.
func RenderWelcome(name, role string) (string, error) {
	article := "a"
	if role == "influencer" {
		article = "an"
	}

	var buf bytes.Buffer
	err := welcomeTemplate.Execute(&buf, map[string]any{
		"Brand":       brandName,
		"Name":        name,
		"Role":        role,
		"RoleArticle": article,
		"Year":        time.Now().Year(),
	})
	if err != nil {
		return "", fmt.Errorf("rendering welcome email: %w", err)
	}
	return buf.String(), nil
}
