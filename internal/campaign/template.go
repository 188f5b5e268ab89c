package campaign

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/rsvphq/guestlist/internal/models"
)

// Theme holds the guest-facing colors of an event page and its emails.
type Theme struct {
	PrimaryColor    string `json:"primaryColor"`
	SecondaryColor  string `json:"secondaryColor"`
	AccentColor     string `json:"accentColor"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
}

// Defaults supplies fallback values for events that leave display fields
// unset. Loaded from configuration at startup.
type Defaults struct {
	Theme              Theme
	HostEmail          string
	BackgroundImageURL string
}

type emailData struct {
	Badge       string
	Greeting    template.HTML
	MainText    template.HTML
	ClosingText string

	Title    string
	Subtitle string
	Date     string
	Time     string
	Location string
	Details  string

	Price       string
	PlusOne     bool
	PlusOneName string

	ManageURL   string
	ManageLabel string

	HostEmail       string
	BackgroundImage string
	Theme           Theme
}

var emailTemplate = template.Must(template.New("campaign-email").Parse(`<!DOCTYPE html>
<html lang="es">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
</head>
<body style="margin:0;padding:0;font-family:'Segoe UI',Arial,sans-serif;background-color:{{.Theme.BackgroundColor}};">
  <table role="presentation" style="width:100%;border-collapse:collapse;background-image:url('{{.BackgroundImage}}');background-size:cover;background-position:center top;">
    <tr>
      <td align="center" style="padding:48px 20px;">
        <table role="presentation" style="width:100%;max-width:560px;border-collapse:collapse;background-color:rgba(15,15,15,0.92);border-radius:12px;">
          <tr>
            <td style="padding:40px 36px;">
            {{- if .Badge}}
              <p style="margin:0 0 16px;display:inline-block;padding:6px 14px;border-radius:999px;background:{{.Theme.AccentColor}};color:#000;font-size:13px;font-weight:600;">{{.Badge}}</p>
            {{- end}}
              <h1 style="margin:0 0 4px;color:{{.Theme.PrimaryColor}};font-size:26px;">{{.Title}}</h1>
            {{- if .Subtitle}}
              <p style="margin:0 0 24px;color:{{.Theme.SecondaryColor}};font-size:16px;">{{.Subtitle}}</p>
            {{- end}}
              <p style="margin:0 0 12px;color:#e5e5e5;font-size:16px;">{{.Greeting}}</p>
              <p style="margin:0 0 24px;color:#cfcfcf;font-size:15px;line-height:1.6;">{{.MainText}}</p>
              <table role="presentation" style="width:100%;border-collapse:collapse;margin-bottom:24px;">
                <tr><td style="padding:6px 0;color:#9a9aa5;font-size:13px;">Fecha</td><td style="padding:6px 0;color:#fff;font-size:14px;" align="right">{{.Date}}{{if .Time}} · {{.Time}}{{end}}</td></tr>
                <tr><td style="padding:6px 0;color:#9a9aa5;font-size:13px;">Lugar</td><td style="padding:6px 0;color:#fff;font-size:14px;" align="right">{{.Location}}</td></tr>
              {{- if .Details}}
                <tr><td style="padding:6px 0;color:#9a9aa5;font-size:13px;">Detalles</td><td style="padding:6px 0;color:#fff;font-size:14px;" align="right">{{.Details}}</td></tr>
              {{- end}}
              {{- if .Price}}
                <tr><td style="padding:6px 0;color:#9a9aa5;font-size:13px;">Aportación</td><td style="padding:6px 0;color:#34d399;font-size:14px;font-weight:700;" align="right">{{.Price}}</td></tr>
              {{- end}}
              {{- if .PlusOne}}
                <tr><td style="padding:6px 0;color:#9a9aa5;font-size:13px;">Acompañante</td><td style="padding:6px 0;color:#fff;font-size:14px;" align="right">{{if .PlusOneName}}{{.PlusOneName}}{{else}}Confirmado{{end}}</td></tr>
              {{- end}}
              </table>
              <table role="presentation" style="width:100%;border-collapse:collapse;">
                <tr>
                  <td align="center">
                    <a href="{{.ManageURL}}" target="_blank" style="background:{{.Theme.AccentColor}};border:none;border-radius:8px;color:#000;display:inline-block;font-size:15px;font-weight:600;line-height:52px;text-align:center;text-decoration:none;width:260px;letter-spacing:0.5px;">{{.ManageLabel}}</a>
                  </td>
                </tr>
              </table>
              <p style="margin:24px 0 0;color:#cfcfcf;font-size:15px;">{{.ClosingText}}</p>
            {{- if .HostEmail}}
              <p style="margin:16px 0 0;color:#9a9aa5;font-size:12px;">¿Dudas? Escríbenos a <a href="mailto:{{.HostEmail}}" style="color:{{.Theme.AccentColor}};">{{.HostEmail}}</a></p>
            {{- end}}
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>
`))

// Subject builds the per-kind subject line for an event.
func Subject(kind, title string) string {
	switch kind {
	case models.EmailKindReminder:
		return "Recordatorio - " + title
	case models.EmailKindReinvitation:
		return "Te extrañamos - " + title
	default:
		return "Confirmación - " + title
	}
}

func renderEmail(kind string, rsvp *models.RSVP, event *models.Event, defaults Defaults, manageURL, baseURL string) (string, error) {
	theme := resolveTheme(event.Theme, defaults.Theme)

	hostEmail := strings.TrimSpace(event.HostEmail)
	if hostEmail == "" {
		hostEmail = defaults.HostEmail
	}

	background := strings.TrimSpace(event.BackgroundImageURL)
	if background == "" {
		background = defaults.BackgroundImageURL
	}
	background = absoluteURL(background, baseURL)

	name := template.HTMLEscapeString(rsvp.Name)
	title := template.HTMLEscapeString(event.Title)

	data := emailData{
		Title:           event.Title,
		Subtitle:        event.Subtitle,
		Date:            event.Date,
		Time:            event.Time,
		Location:        event.Location,
		Details:         event.Details,
		PlusOne:         rsvp.PlusOne,
		PlusOneName:     rsvp.PlusOneName,
		ManageURL:       manageURL,
		HostEmail:       hostEmail,
		BackgroundImage: background,
		Theme:           theme,
	}

	if event.PriceEnabled {
		data.Price = fmt.Sprintf("%.2f %s", event.PriceAmount, event.PriceCurrency)
	}

	switch kind {
	case models.EmailKindReinvitation:
		data.Badge = "Te extrañamos"
		data.Greeting = template.HTML("¡Hola <strong>" + name + "</strong>! 👋")
		data.MainText = template.HTML("Sabemos que habías cancelado tu asistencia a <strong>" + title +
			"</strong>, pero queríamos recordarte que las puertas siguen abiertas por si tus planes cambian.")
		data.ClosingText = "Sin presión, nos encantaría verte ahí. 🌟"
		data.ManageLabel = "Reconfirmar Asistencia ✨"
	case models.EmailKindReminder:
		data.Badge = "Recordatorio"
		data.Greeting = template.HTML("¡Hola <strong>" + name + "</strong>! 👋")
		data.MainText = template.HTML("Te recordamos que tu asistencia está confirmada para <strong>" + title + "</strong>.")
		data.ClosingText = "¡Te esperamos! 🎊"
		data.ManageLabel = "Modificar o Cancelar"
	default:
		data.Greeting = template.HTML("¡Hola <strong>" + name + "</strong>!")
		data.MainText = template.HTML("Tu asistencia ha sido confirmada para <strong>" + title + "</strong>.")
		data.ClosingText = "¡Nos vemos ahí! 🎉"
		data.ManageLabel = "Modificar o Cancelar"
	}

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("campaign: render email: %w", err)
	}
	return buf.String(), nil
}

func resolveTheme(raw []byte, fallback Theme) Theme {
	theme := fallback
	if len(raw) == 0 {
		return applyThemeDefaults(theme)
	}

	var stored Theme
	if err := json.Unmarshal(raw, &stored); err != nil {
		return applyThemeDefaults(theme)
	}

	if stored.PrimaryColor != "" {
		theme.PrimaryColor = stored.PrimaryColor
	}
	if stored.SecondaryColor != "" {
		theme.SecondaryColor = stored.SecondaryColor
	}
	if stored.AccentColor != "" {
		theme.AccentColor = stored.AccentColor
	}
	if stored.BackgroundColor != "" {
		theme.BackgroundColor = stored.BackgroundColor
	}

	return applyThemeDefaults(theme)
}

func applyThemeDefaults(theme Theme) Theme {
	if theme.PrimaryColor == "" {
		theme.PrimaryColor = "#fbbf24"
	}
	if theme.SecondaryColor == "" {
		theme.SecondaryColor = "#d4d4d8"
	}
	if theme.AccentColor == "" {
		theme.AccentColor = "#f59e0b"
	}
	if theme.BackgroundColor == "" {
		theme.BackgroundColor = "#0f0f0f"
	}
	return theme
}

func absoluteURL(path, baseURL string) string {
	path = strings.TrimSpace(path)
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}
