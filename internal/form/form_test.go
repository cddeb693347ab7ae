package form

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name: "valid contact",
			body: `{"formType":"contact","name":"Asha","email":"asha@example.com","phone":"+91 98765-43210","message":"Need GST help"}`,
		},
		{
			name:    "contact bad email",
			body:    `{"formType":"contact","email":"bad","phone":"9876543210","message":"hello there"}`,
			wantErr: "Invalid email address.",
		},
		{
			name: "career without message",
			body: `{"formType":"career","name":"Ravi","email":"ravi@example.in","mobile":"9876543210","position":"Article Assistant"}`,
		},
		{
			name: "career with short message",
			body: `{"formType":"career","email":"ravi@example.in","mobile":"9876543210","message":"hi"}`,
		},
		{
			name:    "missing form type",
			body:    `{"email":"a@example.com","phone":"9876543210","message":"hello there"}`,
			wantErr: "Missing required fields.",
		},
		{
			name:    "missing phone and mobile",
			body:    `{"formType":"query","email":"a@example.com","message":"hello there"}`,
			wantErr: "Missing required fields.",
		},
		{
			name:    "contact without message",
			body:    `{"formType":"contact","email":"a@example.com","phone":"9876543210"}`,
			wantErr: "Missing required fields.",
		},
		{
			name:    "short phone",
			body:    `{"formType":"contact","email":"a@example.com","phone":"98-765-432","message":"hello there"}`,
			wantErr: "Invalid phone number.",
		},
		{
			name: "numeric phone",
			body: `{"formType":"contact","email":"a@example.com","phone":9876543210,"message":"hello there"}`,
		},
		{
			name:    "short message",
			body:    `{"formType":"query","email":"a@example.com","telephone":"1","phone":"9876543210","message":"hey"}`,
			wantErr: "Message too short.",
		},
		{
			name:    "email checked before phone",
			body:    `{"formType":"contact","email":"a@b","phone":"1","message":"x"}`,
			wantErr: "Invalid email address.",
		},
		{
			name:    "tld too long",
			body:    `{"formType":"contact","email":"a@example.museum","phone":"9876543210","message":"hello there"}`,
			wantErr: "Invalid email address.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := Parse([]byte(tt.body))
			require.NoError(t, err)

			err = sub.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.wantErr, ve.Message)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, body := range []string{``, `not json`, `[1,2]`, `null`} {
		_, err := Parse([]byte(body))
		var ve *ValidationError
		assert.True(t, errors.As(err, &ve), body)
	}
}

func TestSubject(t *testing.T) {
	for formType, want := range map[string]string{
		"contact":    "Contact Form Submission",
		"query":      "Query Form Submission",
		"career":     "Career Form Submission",
		"newsletter": "Website Form Submission",
	} {
		s := &Submission{FormType: formType}
		assert.Equal(t, want, s.Subject())
	}
}

func TestFields_AllowListAndOrder(t *testing.T) {
	sub, err := Parse([]byte(`{
		"formType": "query",
		"message": "Please call",
		"officeAddress": "12 MG Road",
		"name": "Asha",
		"email": "asha@example.com",
		"phone": "9876543210",
		"city": "",
		"injected": "<script>x</script>",
		"nested": {"a": 1}
	}`))
	require.NoError(t, err)

	fields := sub.Fields()

	labels := make([]string, len(fields))
	for i, f := range fields {
		labels[i] = f.Label
	}
	assert.Equal(t, []string{"Name", "Office Address", "Email", "Phone", "Message"}, labels)
}

func TestFields_UnknownTypeUsesDefaults(t *testing.T) {
	sub, err := Parse([]byte(`{"formType":"other","name":"A","position":"Manager","message":"hello"}`))
	require.NoError(t, err)

	fields := sub.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, "Name", fields[0].Label)
	assert.Equal(t, "Message", fields[1].Label)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Office Address", Label("officeAddress"))
	assert.Equal(t, "Other Professional Updates", Label("otherProfessionalUpdates"))
	assert.Equal(t, "Email", Label("email"))
}

func TestRenderEmail_Escapes(t *testing.T) {
	sub, err := Parse([]byte(`{"formType":"contact","name":"<b>Eve</b>","email":"eve@example.com","phone":"9876543210","message":"a & b <script>alert(1)</script>"}`))
	require.NoError(t, err)

	html, err := RenderEmail(sub)
	require.NoError(t, err)

	assert.Contains(t, html, "Contact Form Submission")
	assert.Contains(t, html, "&lt;b&gt;Eve&lt;/b&gt;")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, ">Message</td>")
}

type recordingMailer struct {
	sent []Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func TestService_Submit(t *testing.T) {
	mailer := &recordingMailer{}
	svc := NewService(mailer, "site@example.com", "office@example.com", zerolog.Nop())

	err := svc.Submit(context.Background(), []byte(`{"formType":"career","email":"ravi@example.in","mobile":"9876543210","resume":"https://drive.example/cv"}`))
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Career Form Submission", mailer.sent[0].Subject)
	assert.Equal(t, "office@example.com", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].HTML, "https://drive.example/cv")

	err = svc.Submit(context.Background(), []byte(`{"formType":"contact","email":"bad","phone":"9876543210","message":"hello"}`))
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, mailer.sent, 1)
}

func TestService_MailerFailureIsInternal(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("dial tcp: connection refused")}
	svc := NewService(mailer, "a@example.com", "b@example.com", zerolog.Nop())

	err := svc.Submit(context.Background(), []byte(`{"formType":"contact","email":"a@example.com","phone":"9876543210","message":"hello there"}`))
	require.Error(t, err)
	var ve *ValidationError
	assert.False(t, errors.As(err, &ve))
}

func TestBuildMIME(t *testing.T) {
	raw := string(buildMIME(Message{From: "a@example.com", To: "b@example.com", Subject: "S", HTML: "<p>x</p>"}, time.Time{}))
	assert.Contains(t, raw, "From: Website Form <a@example.com>\r\n")
	assert.Contains(t, raw, "Content-Type: text/html; charset=UTF-8\r\n")
	assert.Contains(t, raw, "\r\n\r\n<p>x</p>")
}
