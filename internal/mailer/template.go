package mailer

import (
	"fmt"
	"html/template"
	"strings"
)

// Subject формирует тему письма о новой корреспонденции.
func Subject(sender string) string {
	return fmt.Sprintf("📬 Nueva Correspondencia: %s", sender)
}

// arrivalData — данные письма о поступлении.
type arrivalData struct {
	RecipientName string
	Sender        string
	Type          string
	Date          string
	Time          string
	DashboardURL  string
}

// Текст письма на языке продукта. Вёрстка таблицей для почтовых клиентов.
var arrivalTmpl = template.Must(template.New("arrival").Parse(`<!DOCTYPE html>
<html lang="es">
<body style="margin:0;padding:0;background-color:#f4f4f1;font-family:Arial,Helvetica,sans-serif;">
  <table role="presentation" width="100%" cellpadding="0" cellspacing="0">
    <tr><td align="center" style="padding:32px 16px;">
      <table role="presentation" width="520" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:8px;overflow:hidden;">
        <tr><td style="background-color:#2d5a3d;padding:24px 32px;">
          <h1 style="margin:0;color:#ffffff;font-size:20px;">Botánico Coworking</h1>
        </td></tr>
        <tr><td style="padding:32px;">
          <p style="margin:0 0 16px;font-size:16px;color:#333333;">Hola {{.RecipientName}},</p>
          <p style="margin:0 0 24px;font-size:15px;color:#333333;">
            Has recibido nueva correspondencia en recepción:
          </p>
          <table role="presentation" width="100%" cellpadding="0" cellspacing="0" style="background-color:#f8f8f5;border-radius:6px;">
            <tr><td style="padding:16px 20px;">
              <p style="margin:0 0 8px;font-size:14px;color:#555555;"><strong>Tipo:</strong> {{.Type}}</p>
              <p style="margin:0 0 8px;font-size:14px;color:#555555;"><strong>Remitente:</strong> {{.Sender}}</p>
              <p style="margin:0;font-size:14px;color:#555555;"><strong>Recibido:</strong> {{.Date}} a las {{.Time}}</p>
            </td></tr>
          </table>
          <p style="margin:24px 0;font-size:15px;color:#333333;">
            Puedes pasar a recogerla en recepción en horario de atención.
          </p>
          <table role="presentation" cellpadding="0" cellspacing="0">
            <tr><td style="background-color:#2d5a3d;border-radius:6px;">
              <a href="{{.DashboardURL}}" style="display:inline-block;padding:12px 28px;color:#ffffff;font-size:14px;text-decoration:none;">Ver mi correspondencia</a>
            </td></tr>
          </table>
        </td></tr>
        <tr><td style="padding:20px 32px;background-color:#f8f8f5;">
          <p style="margin:0;font-size:12px;color:#999999;">
            Este es un mensaje automático del sistema de correspondencia de Botánico Coworking.
          </p>
        </td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`))

// ArrivalHTML формирует тело письма о поступившей корреспонденции.
func ArrivalHTML(recipientName, sender, corrType, date, timeOfDay, dashboardURL string) (string, error) {
	var sb strings.Builder
	err := arrivalTmpl.Execute(&sb, arrivalData{
		RecipientName: recipientName,
		Sender:        sender,
		Type:          corrType,
		Date:          date,
		Time:          timeOfDay,
		DashboardURL:  dashboardURL,
	})
	if err != nil {
		return "", fmt.Errorf("рендеринг письма: %w", err)
	}
	return sb.String(), nil
}
