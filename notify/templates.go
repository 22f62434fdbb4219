package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

// Email is a rendered message ready for Notifier.Send.
type Email struct {
	Subject string
	HTML    string
}

type QueueJoinedData struct {
	RestaurantName string
	CustomerName   string
	Position       int
	EstimatedWait  int
	StatusURL      string
}

type TableReadyData struct {
	RestaurantName string
	CustomerName   string
	TableNumber    string
	StatusURL      string
}

var queueJoinedTmpl = template.Must(template.New("queueJoined").Parse(`<!DOCTYPE html>
<html>
  <head><meta charset="utf-8"><title>Queue Confirmation</title></head>
  <body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>You're in the queue!</h1>
    <h2>{{.RestaurantName}}</h2>
    <p>Hi {{.CustomerName}}!</p>
    <p>Thanks for joining our queue. Here are your details:</p>
    <p><strong>Queue Position: #{{.Position}}</strong></p>
    <p>Estimated wait time: <strong>{{.EstimatedWait}} minutes</strong></p>
    <p>We'll email you when your table is ready!</p>
    <p><a href="{{.StatusURL}}">Check Your Status</a></p>
    <p><small>Questions? Contact {{.RestaurantName}} directly.</small></p>
  </body>
</html>`))

var tableReadyTmpl = template.Must(template.New("tableReady").Parse(`<!DOCTYPE html>
<html>
  <head><meta charset="utf-8"><title>Table Ready!</title></head>
  <body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>Table Ready!</h1>
    <h2>{{.RestaurantName}}</h2>
    <p>Hi {{.CustomerName}}!</p>
    <p><strong>Your table is ready!</strong></p>
    {{if .TableNumber}}<p>Please head to <strong>Table {{.TableNumber}}</strong></p>{{end}}
    <p><strong>Please proceed to the host stand</strong></p>
    <p><a href="{{.StatusURL}}">View Your Status</a></p>
    <p>Thank you for your patience!</p>
  </body>
</html>`))

func QueueJoinedEmail(data QueueJoinedData) (Email, error) {
	html, err := render(queueJoinedTmpl, data)
	if err != nil {
		return Email{}, err
	}
	return Email{
		Subject: fmt.Sprintf("Welcome to %s - Queue Position #%d", data.RestaurantName, data.Position),
		HTML:    html,
	}, nil
}

func TableReadyEmail(data TableReadyData) (Email, error) {
	html, err := render(tableReadyTmpl, data)
	if err != nil {
		return Email{}, err
	}
	return Email{
		Subject: fmt.Sprintf("Your table is ready at %s!", data.RestaurantName),
		HTML:    html,
	}, nil
}

// StatusURL is the customer-facing status page for a queue entry.
func StatusURL(baseURL, entryID string) string {
	return baseURL + "/queue/" + entryID
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
