package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/claimlens/engine"
	"github.com/spektr-org/claimlens/export"
)

var today = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func testBundle(t *testing.T) export.Bundle {
	t.Helper()
	var claims []engine.ClaimRecord
	add := func(offset int, cost float64) {
		claims = append(claims, engine.ClaimRecord{
			AdmissionDate: sql.NullTime{Time: today.AddDate(0, 0, offset), Valid: true},
			ClaimCost:     sql.NullFloat64{Float64: cost, Valid: true},
		})
	}
	add(-1, 1000)
	add(-2, 234.5)
	add(-9, 600)
	add(-10, 400)

	ledger := &engine.Ledger{
		Columns: []string{engine.ColumnAdmissionDate, engine.ColumnClaimCost},
		Claims:  claims,
	}
	res, err := engine.Run(context.Background(), engine.NewSliceView(ledger), today)
	require.NoError(t, err)
	return export.NewBundle("run-1", today, res)
}

func TestRenderSummary(t *testing.T) {
	msg, err := RenderSummary(testBundle(t), "Andrea\nAnalytics consultant")
	require.NoError(t, err)

	assert.Equal(t, "Weekly Claims Summary – Mar 15, 2024", msg.Subject)
	assert.True(t, strings.HasPrefix(msg.Body, "Hi Team,\n"))
	assert.Contains(t, msg.Body, "This Week's Claims     : 2\n")
	assert.Contains(t, msg.Body, "Last Week's Claims     : 2\n")
	assert.Contains(t, msg.Body, "WoW Growth             : 0.00%\n")
	assert.Contains(t, msg.Body, "Total Weekly Cost      : $1,234.50\n")
	assert.Contains(t, msg.Body, "Average Cost per Claim : $617.25\n")
	assert.True(t, strings.HasSuffix(msg.Body, "Regards,\nAndrea\nAnalytics consultant\n"))

	require.Len(t, msg.Attachments, 2)
	assert.Equal(t, "summary.csv", msg.Attachments[0].Name)
	assert.Equal(t, "top_contributors.csv", msg.Attachments[1].Name)
	assert.Equal(t, "text/csv", msg.Attachments[0].ContentType)
	assert.True(t, strings.HasPrefix(string(msg.Attachments[0].Content), "metric,value\n"))
}

func TestRenderSummaryDefaults(t *testing.T) {
	msg, err := RenderSummary(testBundle(t), "  ")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(msg.Body, "Regards,\n"+DefaultSignature+"\n"))

	_, err = RenderSummary(export.Bundle{}, "")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	_, err := New(Config{Transport: "pigeon"})
	assert.ErrorIs(t, err, ErrUnknownTransport)

	_, err = New(Config{Transport: TransportSMTP, SMTP: SMTPConfig{Host: "mail", From: "a@b.c"}})
	assert.ErrorIs(t, err, ErrNoRecipients)

	_, err = New(Config{Transport: TransportWebhook})
	assert.Error(t, err)

	_, err = New(Config{Transport: TransportKafka, Kafka: KafkaConfig{Brokers: []string{"localhost:9092"}}})
	assert.Error(t, err)

	n, err := New(Config{Transport: "Webhook", Webhook: WebhookConfig{URL: "http://localhost"}})
	require.NoError(t, err)
	assert.IsType(t, &WebhookNotifier{}, n)

	n, err = New(Config{Transport: TransportKafka, Kafka: KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "claims"}})
	require.NoError(t, err)
	assert.IsType(t, &KafkaNotifier{}, n)
}

func TestWebhookNotifier(t *testing.T) {
	var got Message
	var header string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		header = r.Header.Get("X-Token")
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n, err := NewWebhook(WebhookConfig{URL: srv.URL, Headers: map[string]string{"X-Token": "secret"}})
	require.NoError(t, err)

	msg := Message{
		Subject:     "s",
		Body:        "b",
		Attachments: []Attachment{{Name: "summary.csv", ContentType: "text/csv", Content: []byte("metric,value\n")}},
	}
	require.NoError(t, n.Send(context.Background(), msg))
	assert.Equal(t, msg, got)
	assert.Equal(t, "secret", header)
}

func TestWebhookNotifierErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	n, err := NewWebhook(WebhookConfig{URL: srv.URL})
	require.NoError(t, err)

	err = n.Send(context.Background(), Message{Subject: "s"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "boom")
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaNotifier(t *testing.T) {
	w := &fakeWriter{}
	n := &KafkaNotifier{writer: w, now: func() time.Time { return today }}

	require.NoError(t, n.Send(context.Background(), Message{Subject: "s", Body: "b"}))
	require.Len(t, w.msgs, 1)
	assert.Len(t, w.msgs[0].Key, 36)
	assert.Equal(t, today, w.msgs[0].Time)

	var got Message
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, "s", got.Subject)

	w.err = errors.New("broker down")
	err := n.Send(context.Background(), Message{})
	assert.ErrorContains(t, err, "broker down")

	require.NoError(t, n.Close())
	assert.True(t, w.closed)
}

func TestSMTPNotifier(t *testing.T) {
	n, err := NewSMTP(SMTPConfig{Host: "mail.example.com", From: "reports@example.com", Username: "u", Password: "p"},
		[]string{"team@example.com", "lead@example.com"})
	require.NoError(t, err)

	var (
		gotAddr string
		gotTo   []string
		gotRaw  []byte
		gotAuth smtp.Auth
	)
	n.send = func(_ context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotTo, gotRaw = addr, a, to, msg
		assert.Equal(t, "reports@example.com", from)
		return nil
	}

	msg, err := RenderSummary(testBundle(t), "")
	require.NoError(t, err)
	require.NoError(t, n.Send(context.Background(), msg))

	assert.Equal(t, "mail.example.com:587", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, []string{"team@example.com", "lead@example.com"}, gotTo)

	raw := string(gotRaw)
	assert.Contains(t, raw, "To: team@example.com, lead@example.com\r\n")
	assert.Contains(t, raw, "Content-Type: multipart/mixed; boundary=")
	assert.Contains(t, raw, `attachment; filename="summary.csv"`)
	assert.Contains(t, raw, `attachment; filename="top_contributors.csv"`)
	assert.Contains(t, raw, "This Week's Claims     : 2\r\n")
}

func TestSMTPNotifierCancelled(t *testing.T) {
	n, err := NewSMTP(SMTPConfig{Host: "mail", From: "a@b.c"}, []string{"x@y.z"})
	require.NoError(t, err)
	n.send = func(context.Context, string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.Send(ctx, Message{}), context.Canceled)
}

func TestSMTPNotifierDeadline(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = io.Copy(io.Discard, conn) // accepts but never greets
	}()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	n, err := NewSMTP(SMTPConfig{Host: host, Port: p, From: "a@b.c"}, []string{"x@y.z"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	err = n.Send(ctx, Message{Subject: "s", Body: "b"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}
