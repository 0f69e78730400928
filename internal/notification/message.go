package notification

import (
	"bytes"
	"net/url"
	"strings"
	"text/template"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

const confirmationSubject = "{{.SiteName}}: account confirmation"

const confirmationBody = `Hi {{.FirstName}},

A new account has been requested at '{{.SiteName}}' using your email address.

To confirm your new account, please go to this web address:

{{.URL}}

In most mail programs, this should appear as a blue link which you can just click on.
If that doesn't work, then cut and paste the address into the address line at the top of your web browser window.

Your Parcoursup identifier is {{.PsupID}}.
`

var (
	subjectTemplate = template.Must(template.New("subject").Parse(confirmationSubject))
	bodyTemplate    = template.Must(template.New("body").Parse(confirmationBody))
)

type confirmationParams struct {
	SiteName  string
	FirstName string
	PsupID    string
	URL       string
}

func render(t *template.Template, p confirmationParams) (string, error) {
	var b bytes.Buffer
	if err := t.Execute(&b, p); err != nil {
		return "", err
	}
	return b.String(), nil
}

// ConfirmationURL builds the link that confirms username with secret.
// The data parameter is "<secret>/<username>", split on the first slash by the confirm endpoint.
func ConfirmationURL(publicURL, username, secret string) string {
	q := url.Values{}
	q.Set("data", secret+"/"+username)
	return strings.TrimRight(publicURL, "/") + "/confirm?" + q.Encode()
}

// ParseConfirmationData splits the data parameter of a confirmation link into secret and username.
func ParseConfirmationData(data string) (secret, username string, ok bool) {
	secret, username, ok = strings.Cut(data, "/")
	if !ok || secret == "" || username == "" {
		return "", "", false
	}
	return secret, username, true
}
