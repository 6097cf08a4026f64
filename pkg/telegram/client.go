package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const defaultAPIBase = "https://api.telegram.org"

// ErrPollTimeout marks a long poll that returned without updates; the
// ingestion loop treats it as a normal iteration.
var ErrPollTimeout = errors.New("long poll timed out")

type BotInfo struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

type Message struct {
	Chat Chat   `json:"chat"`
	Text string `json:"text"`
}

type Chat struct {
	ID int64 `json:"id"`
}

// Client is a thin wrapper over the Telegram bot HTTPS API: getMe,
// sendMessage and getUpdates are the only calls this system makes.
type Client struct {
	token   string
	baseURL string

	// sendClient uses a short connect timeout and a longer overall one so a
	// slow Telegram API cannot hold an order acknowledgment hostage.
	sendClient *http.Client
	pollClient *http.Client
}

func NewClient(token string) *Client {
	return NewClientWithBase(token, defaultAPIBase)
}

func NewClientWithBase(token, baseURL string) *Client {
	dialer := &net.Dialer{Timeout: 3 * time.Second}
	return &Client{
		token:   token,
		baseURL: baseURL,
		sendClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: &http.Transport{DialContext: dialer.DialContext},
		},
		pollClient: &http.Client{Timeout: 35 * time.Second},
	}
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

type apiResponse struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
}

func (c *Client) GetMe() (*BotInfo, error) {
	resp, err := c.sendClient.Get(c.methodURL("getMe"))
	if err != nil {
		return nil, errors.Wrap(err, "getMe request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("getMe: unexpected status %d", resp.StatusCode)
	}

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return nil, errors.Wrap(err, "decode getMe response")
	}

	var info BotInfo
	if err := json.Unmarshal(api.Result, &info); err != nil {
		return nil, errors.Wrap(err, "decode bot info")
	}
	return &info, nil
}

// SendMessage delivers text to a chat with HTML formatting and link preview
// disabled. It never returns an error: every failure class is logged and
// reported as false.
func (c *Client) SendMessage(chatID int64, text string) bool {
	payload := map[string]interface{}{
		"chat_id":                  chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).Error("Failed to encode sendMessage payload")
		return false
	}

	resp, err := c.sendClient.Post(c.methodURL("sendMessage"), "application/json", bytes.NewReader(body))
	if err != nil {
		if isTimeout(err) {
			log.Warn("Timeout while sending to Telegram")
		} else {
			log.WithError(err).Warn("Connection error while sending to Telegram")
		}
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		log.WithFields(log.Fields{
			"status": resp.StatusCode,
			"body":   string(respBody),
		}).Error("Telegram API error")
		return false
	}

	log.Info("Message delivered to Telegram")
	return true
}

// GetUpdates long polls for inbound updates. The wait is bounded by the
// timeout parameter (seconds); the HTTP request itself is given a slightly
// larger deadline.
func (c *Client) GetUpdates(offset int64, timeout int) ([]Update, error) {
	query := url.Values{}
	query.Set("offset", strconv.FormatInt(offset, 10))
	query.Set("timeout", strconv.Itoa(timeout))

	resp, err := c.pollClient.Get(c.methodURL("getUpdates") + "?" + query.Encode())
	if err != nil {
		if isTimeout(err) {
			return nil, ErrPollTimeout
		}
		return nil, errors.Wrap(err, "getUpdates request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("getUpdates: unexpected status %d", resp.StatusCode)
	}

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return nil, errors.Wrap(err, "decode getUpdates response")
	}
	if !api.OK {
		return nil, errors.New("getUpdates: api returned ok=false")
	}

	var updates []Update
	if err := json.Unmarshal(api.Result, &updates); err != nil {
		return nil, errors.Wrap(err, "decode updates")
	}
	return updates, nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
