package client

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"selfservice-kiosk/internal/domain"

	"github.com/stretchr/testify/assert"
)

type stubDoer struct {
	response *Response
	err      error

	method string
	url    string
	opts   Options
}

func (d *stubDoer) Send(ctx context.Context, method, url string, body interface{}, opts Options) (*Response, error) {
	d.method = method
	d.url = url
	d.opts = opts
	return d.response, d.err
}

func TestRemote_SubmitOrderDecodesResult(t *testing.T) {
	doer := &stubDoer{response: &Response{Status: http.StatusCreated, Body: []byte(`{"id":"o-1","orderNumber":"A042","status":"confirmed"}`)}}
	remote := NewRemote("http://pos.local", doer, time.Minute)

	result, err := remote.SubmitOrder(context.Background(), domain.OrderSubmission{})

	assert.NoError(t, err)
	assert.Equal(t, "http://pos.local/selfservice/orders", doer.url)
	assert.Equal(t, http.MethodPost, doer.method)
	assert.Equal(t, "A042", result.OrderNumber)
}

func TestRemote_ProcessPaymentDeclined(t *testing.T) {
	doer := &stubDoer{response: &Response{Status: http.StatusOK, Body: []byte(`{"success":false,"status":"declined"}`)}}
	remote := NewRemote("http://pos.local", doer, time.Minute)

	result, err := remote.ProcessPayment(context.Background(), "o-1", domain.PaymentPix, 44)

	assert.Error(t, err)
	var appErr *domain.Error
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, domain.ErrKindPayment, appErr.Kind)
	assert.Equal(t, "declined", result.Status)

	// payments run on their own, longer timeout
	assert.Equal(t, time.Minute, doer.opts.Timeout)
}

func TestRemote_HealthyTreatsRemoteErrorsAsOnline(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "ok", err: nil, want: true},
		{name: "remote error", err: domain.NewRemoteError(http.StatusInternalServerError, "boom"), want: true},
		{name: "network error", err: domain.NewNetworkError(errors.New("refused")), want: false},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			doer := &stubDoer{response: &Response{Status: http.StatusOK}, err: testCase.err}
			if testCase.err != nil {
				doer.response = nil
			}
			remote := NewRemote("http://pos.local", doer, time.Minute)
			assert.Equal(t, testCase.want, remote.Healthy(context.Background()))
		})
	}
}
