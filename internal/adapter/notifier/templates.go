package notifier

import (
	"bytes"
	"fmt"
	"text/template"

	"loanflow-backend/internal/domain/notification"
)

type pair struct {
	subject string
	body    string
}

// Email bodies keep the subject; WhatsApp only uses the body.
var emailTemplates = map[notification.Kind]pair{
	notification.KindApplicationReceived: {
		"Loan application {{.code}} received",
		"Hi {{.name}},\n\nWe received your application {{.code}} for {{money .requested_amount}}. We will let you know once it has been reviewed.\n",
	},
	notification.KindLoanApproved: {
		"Loan {{.code}} approved",
		"Hi {{.name}},\n\nYour loan {{.code}} was approved for {{money .approved_amount}}. Choose a tenure to continue.\n",
	},
	notification.KindPaymentFailed: {
		"Payment for loan {{.code}} could not be verified",
		"Hi {{.name}},\n\nWe could not verify the payment for loan {{.code}}.{{with .remarks}} Reason: {{.}}.{{end}} Please submit the payment again.\n",
	},
	notification.KindPaymentApproved: {
		"Payment for loan {{.code}} confirmed",
		"Hi {{.name}},\n\nYour payment for loan {{.code}} was confirmed. Disbursement is expected by {{.expected_completion}}.\n",
	},
	notification.KindPaymentPending: {
		"Payment pending for loan {{.code}}",
		"Hi {{.name}},\n\nLoan {{.code}} is waiting for a payment of {{money .amount}}.\n",
	},
	notification.KindProfileIncomplete: {
		"Complete your profile",
		"Hi {{.name}},\n\nYour profile is missing some details or documents. Complete it to apply for a loan.\n",
	},
	notification.KindLoanCompleted: {
		"Loan {{.code}} disbursed",
		"Hi {{.name}},\n\nLoan {{.code}} has been completed.\n",
	},
	notification.KindLoanRejected: {
		"Loan {{.code}} was not approved",
		"Hi {{.name}},\n\nWe are unable to approve loan {{.code}}.{{with .remarks}} Reason: {{.}}.{{end}}\n",
	},
}

var whatsappTemplates = map[notification.Kind]string{
	notification.KindPaymentPending:    "Loan {{.code}}: a payment of {{money .amount}} is pending. Please complete it in the app.",
	notification.KindProfileIncomplete: "Hi {{.name}}, your profile is incomplete. Add the missing details and documents to continue.",
	notification.KindPaymentFailed:     "Loan {{.code}}: your payment could not be verified. Please submit it again.",
	notification.KindLoanApproved:      "Loan {{.code}} approved for {{money .approved_amount}}.",
}

var funcs = template.FuncMap{
	"money": func(v any) string {
		switch n := v.(type) {
		case float64:
			return fmt.Sprintf("%.2f", n)
		case nil:
			return "0.00"
		}
		return fmt.Sprint(v)
	},
}

// Templates holds the parsed subject and body templates per channel and kind.
type Templates struct {
	subjects map[notification.Kind]*template.Template
	bodies   map[notification.Channel]map[notification.Kind]*template.Template
}

// DefaultTemplates parses the built-in templates. It panics on a syntax
// error, which only a code change can cause.
func DefaultTemplates() *Templates {
	t := &Templates{
		subjects: make(map[notification.Kind]*template.Template),
		bodies: map[notification.Channel]map[notification.Kind]*template.Template{
			notification.ChannelEmail:    {},
			notification.ChannelWhatsApp: {},
		},
	}
	for kind, p := range emailTemplates {
		t.subjects[kind] = parse("subject:"+string(kind), p.subject)
		t.bodies[notification.ChannelEmail][kind] = parse("email:"+string(kind), p.body)
	}
	for kind, body := range whatsappTemplates {
		t.bodies[notification.ChannelWhatsApp][kind] = parse("whatsapp:"+string(kind), body)
	}
	return t
}

func parse(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).Parse(text))
}

func (t *Templates) Render(ch notification.Channel, kind notification.Kind, data map[string]any) (Message, error) {
	body, ok := t.bodies[ch][kind]
	if !ok {
		return Message{}, fmt.Errorf("no %s template for %s", ch, kind)
	}
	var msg Message
	var buf bytes.Buffer
	if err := body.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render %s/%s: %w", ch, kind, err)
	}
	msg.Body = buf.String()
	if subj, ok := t.subjects[kind]; ok && ch == notification.ChannelEmail {
		buf.Reset()
		if err := subj.Execute(&buf, data); err != nil {
			return Message{}, fmt.Errorf("render subject %s: %w", kind, err)
		}
		msg.Subject = buf.String()
	}
	return msg, nil
}
