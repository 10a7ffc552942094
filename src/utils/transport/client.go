package transport

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/warp-contracts/stager/src/messages"
	"github.com/warp-contracts/stager/src/utils/config"
	"github.com/warp-contracts/stager/src/utils/envelope"
	"github.com/warp-contracts/stager/src/utils/logger"
	"github.com/warp-contracts/stager/src/utils/monitoring"
)

// Outcome of a remote call. Transport problems end up as error messages, never as Go errors.
type Result struct {
	Data     json.RawMessage
	Messages []messages.Message
}

// True if the call did not produce a response
func (self *Result) Failed() bool {
	return self.Data == nil
}

func (self *Result) Decode(out any) error {
	if self.Failed() {
		return errors.New("no response data")
	}
	return json.Unmarshal(self.Data, out)
}

func failed(text string) *Result {
	return &Result{Messages: []messages.Message{messages.Error(text)}}
}

// Calls the peer environment
type Client struct {
	config  *config.Transport
	log     *logrus.Entry
	monitor monitoring.Monitor
	client  *resty.Client
}

func NewClient(config *config.Transport) (self *Client) {
	self = new(Client)
	self.log = logger.NewSublogger("transport")
	self.config = config

	self.client = resty.New().
		SetBaseURL(config.PeerURL).
		SetTimeout(config.RequestTimeout).
		SetHeader("User-Agent", "stager").
		SetRetryCount(0).
		SetLogger(newRestyLogger()).
		SetTransport(self.createTransport()).
		OnAfterResponse(self.onStatusToError)

	return
}

func (self *Client) WithMonitor(v monitoring.Monitor) *Client {
	self.monitor = v
	return self
}

func (self *Client) createTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   self.config.DialerTimeout,
		KeepAlive: self.config.DialerKeepAlive,
	}

	transport := &http.Transport{
		ForceAttemptHTTP2: true,

		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   self.config.TLSHandshakeTimeout,
		ExpectContinueTimeout: 1 * time.Second,

		IdleConnTimeout:     self.config.IdleConnTimeout,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
	}

	if self.config.DisableSSLVerification {
		/* #nosec */
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return transport
}

// Converts HTTP status to errors
func (self *Client) onStatusToError(c *resty.Client, resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	self.log.WithField("status", resp.StatusCode()).
		WithField("resp", string(resp.Body())).
		WithField("url", resp.Request.URL).
		Debug("Bad response")
	return fmt.Errorf("unexpected status: %s", resp.Status())
}

// Signs and sends the call, decodes the reply payload
func (self *Client) Call(ctx context.Context, method string, in any) (out *Result) {
	if self.monitor != nil {
		self.monitor.GetReport().Staging.State.RequestsSent.Inc()
		defer func() {
			if out.Failed() {
				self.monitor.GetReport().Staging.Errors.TransportFailures.Inc()
			}
		}()
	}

	log := self.log.WithField("method", method).WithField("host", self.config.PeerURL)

	payload, err := envelope.Encode(in)
	if err != nil {
		log.WithError(err).Error("Failed to encode request")
		return failed(fmt.Sprintf("Failed to encode %s request: %s", method, err))
	}

	resp, err := self.client.R().
		SetContext(ctx).
		SetBody(Request{
			Method:      method,
			AccessToken: envelope.Sign(payload, self.config.SharedSecret),
			Payload:     payload,
		}).
		SetResult(&Reply{}).
		SetError(&Reply{}).
		ForceContentType("application/json").
		Post(self.config.Path)
	if err != nil {
		log.WithError(err).Warn("Call failed")
		return self.toResult(resp, err)
	}

	reply, ok := resp.Result().(*Reply)
	if !ok || reply.Payload == "" {
		return failed(fmt.Sprintf("Empty response - on host: %s (error code %d)", self.config.PeerURL, resp.StatusCode()))
	}

	data, err := envelope.DecodeRaw(reply.Payload)
	if err != nil {
		log.WithError(err).Warn("Failed to decode response")
		return failed(fmt.Sprintf("Failed to decode response - on host: %s (%s)", self.config.PeerURL, err))
	}

	return &Result{Data: data}
}

// Maps a failed call to a human readable message
func (self *Client) toResult(resp *resty.Response, err error) *Result {
	if resp != nil && resp.StatusCode() == http.StatusNotFound {
		return failed(fmt.Sprintf("Content staging not installed on host %s", self.config.PeerURL))
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) || (errors.As(err, &opErr) && opErr.Op == "dial") {
		return failed(fmt.Sprintf("Could not connect to host %s", self.config.PeerURL))
	}

	code := 0
	if resp != nil {
		code = resp.StatusCode()
	}
	return failed(fmt.Sprintf("%s - on host: %s (error code %d)", err, self.config.PeerURL, code))
}
