// internal/ledger/ledgerws/client.go
package ledgerws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/orangejack/orangejack/internal/ledger"
)

const writeTimeout = 5 * time.Second

// Config carries what the client needs to reach the ledger endpoint.
type Config struct {
	URL   string // websocket endpoint, e.g. wss://ledger.example.com/ws
	Token string // session JWT presented as a bearer credential on dial
}

// request is one outbound JSON-RPC style frame. Every call carries a fresh
// correlation id; the endpoint echoes it on the response.
type request struct {
	ID     uuid.UUID       `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// frame is the envelope of every inbound message. Exactly one of the
// type-specific payloads is meaningful per frame.
type frame struct {
	Type string `json:"type"`

	// response frames
	ID     uuid.UUID       `json:"id,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *remoteError    `json:"error,omitempty"`

	// tx_status frames
	Hash   string `json:"hash,omitempty"`
	Status string `json:"status,omitempty"`
	Reason string `json:"reason,omitempty"`

	// event frames
	Event *ledger.Event `json:"event,omitempty"`

	// hello frame
	GameAddress string `json:"gameAddress,omitempty"`
}

type remoteError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type pendingCall struct {
	result json.RawMessage
	err    *remoteError
}

// Client speaks the ledger wire protocol over a single websocket connection:
// request/response calls correlated by id, transaction settlement by pushed
// tx_status frames, and game events by pushed event frames. It implements
// ledger.Gateway. A dropped connection fails every pending call and every
// unsettled transaction handle; the client does not reconnect on its own.
type Client struct {
	conn *websocket.Conn
	log  *logrus.Logger

	gameAddress string

	mu      sync.Mutex
	calls   map[uuid.UUID]chan pendingCall
	txs     map[string]*ledger.TxHandle
	early   map[string]*ledger.Receipt // settles that beat their handle registration
	onEvent func(ledger.Event)
	closed  bool
	readErr error
}

// Dial connects and authenticates against the ledger endpoint. The endpoint
// greets with a hello frame naming the game address; Dial does not return
// until that frame arrives or ctx ends.
func Dial(ctx context.Context, cfg Config, log *logrus.Logger) (*Client, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.Token)

	conn, _, err := websocket.Dial(ctx, cfg.URL, &websocket.DialOptions{
		HTTPHeader:   header,
		Subprotocols: []string{"ledger"},
	})
	if err != nil {
		return nil, ledger.WrapErr(ledger.KindConnection, "ledger.dial", err)
	}

	c := &Client{
		conn:  conn,
		log:   log,
		calls: make(map[uuid.UUID]chan pendingCall),
		txs:   make(map[string]*ledger.TxHandle),
		early: make(map[string]*ledger.Receipt),
	}

	// The hello frame is read synchronously so callers always have the game
	// address before issuing calls.
	_, data, err := conn.Read(ctx)
	if err != nil {
		conn.Close(websocket.StatusProtocolError, "no hello")
		return nil, ledger.WrapErr(ledger.KindConnection, "ledger.dial", err)
	}
	var hello frame
	if err := json.Unmarshal(data, &hello); err != nil || hello.Type != "hello" || hello.GameAddress == "" {
		conn.Close(websocket.StatusProtocolError, "bad hello")
		return nil, ledger.E(ledger.KindConnection, "ledger.dial", "endpoint did not greet with a hello frame")
	}
	c.gameAddress = hello.GameAddress
	log.Infof("Connected to ledger endpoint %s (game %s)", cfg.URL, c.gameAddress)

	go c.readLoop()
	return c, nil
}

// OnEvent registers the hook invoked for every pushed game event. The hook
// runs on the read loop goroutine and must not block.
func (c *Client) OnEvent(fn func(ledger.Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvent = fn
}

// Close shuts the connection down and fails anything still in flight.
func (c *Client) Close() error {
	err := c.conn.Close(websocket.StatusNormalClosure, "client closed")
	c.failAll(ledger.E(ledger.KindConnection, "ledger.close", "connection closed by client"))
	return err
}

// readLoop dispatches inbound frames until the connection dies. It is the
// only reader of the connection.
func (c *Client) readLoop() {
	ctx := context.Background()
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				c.log.Infof("Ledger connection closed normally.")
			} else {
				c.log.Warnf("Error reading from ledger connection: %v (Status: %d)", err, status)
			}
			c.failAll(ledger.WrapErr(ledger.KindConnection, "ledger.read", err))
			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.log.Warnf("Invalid JSON frame from ledger endpoint: %v. Data: %s", err, string(data))
			continue
		}

		switch f.Type {
		case "response":
			c.settleCall(f)
		case "tx_status":
			c.settleTx(f)
		case "event":
			c.dispatchEvent(f)
		default:
			c.log.Warnf("Unknown frame type '%s' from ledger endpoint. Ignoring.", f.Type)
		}
	}
}

func (c *Client) settleCall(f frame) {
	c.mu.Lock()
	ch, ok := c.calls[f.ID]
	if ok {
		delete(c.calls, f.ID)
	}
	c.mu.Unlock()
	if !ok {
		c.log.Warnf("Response for unknown call id %s. Ignoring.", f.ID)
		return
	}
	ch <- pendingCall{result: f.Result, err: f.Error}
}

func (c *Client) settleTx(f frame) {
	var status ledger.TxStatus
	switch f.Status {
	case "confirmed":
		status = ledger.TxConfirmed
	case "reverted":
		status = ledger.TxReverted
	case "out_of_gas":
		status = ledger.TxOutOfGas
	default:
		c.log.Warnf("Unknown settle status '%s' for transaction %s. Treating as reverted.", f.Status, f.Hash)
		status = ledger.TxReverted
	}
	receipt := &ledger.Receipt{Hash: f.Hash, Status: status, Reason: f.Reason}

	c.mu.Lock()
	h, ok := c.txs[f.Hash]
	if ok {
		delete(c.txs, f.Hash)
	} else {
		// The status frame can arrive before submit has registered the
		// handle; park it until registration.
		c.early[f.Hash] = receipt
	}
	c.mu.Unlock()
	if !ok {
		return
	}

	c.log.WithFields(logrus.Fields{
		"hash":   f.Hash,
		"status": status.String(),
	}).Debug("transaction settled")
	h.Resolve(receipt)
}

func (c *Client) dispatchEvent(f frame) {
	if f.Event == nil {
		return
	}
	c.mu.Lock()
	fn := c.onEvent
	c.mu.Unlock()
	if fn != nil {
		fn(*f.Event)
	}
}

// failAll settles every pending call and unsettled transaction handle with
// err, once. Later frames for them are ignored by the loop.
func (c *Client) failAll(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.readErr = err
	for id, ch := range c.calls {
		delete(c.calls, id)
		ch <- pendingCall{err: &remoteError{Code: "connection", Message: err.Error()}}
	}
	for hash, h := range c.txs {
		delete(c.txs, hash)
		h.Fail(err)
	}
}

// call performs one correlated request and decodes the result into out when
// out is non-nil.
func (c *Client) call(ctx context.Context, method string, params interface{}, out interface{}) error {
	var raw json.RawMessage
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("marshal %s params: %w", method, err)
		}
		raw = b
	}
	req := request{ID: uuid.New(), Method: method, Params: raw}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	ch := make(chan pendingCall, 1)
	c.mu.Lock()
	if c.closed {
		readErr := c.readErr
		c.mu.Unlock()
		return ledger.WrapErr(ledger.KindConnection, method, readErr)
	}
	c.calls[req.ID] = ch
	c.mu.Unlock()

	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	err = c.conn.Write(writeCtx, websocket.MessageText, body)
	cancel()
	if err != nil {
		c.mu.Lock()
		delete(c.calls, req.ID)
		c.mu.Unlock()
		return ledger.WrapErr(ledger.KindConnection, method, err)
	}

	select {
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.calls, req.ID)
		c.mu.Unlock()
		return ledger.WrapErr(ledger.KindConnection, method, ctx.Err())
	case resp := <-ch:
		if resp.err != nil {
			return mapRemoteError(method, resp.err)
		}
		if out != nil {
			if err := json.Unmarshal(resp.result, out); err != nil {
				return fmt.Errorf("decode %s result: %w", method, err)
			}
		}
		return nil
	}
}

// submit performs a mutating call. The response hands off a transaction hash;
// settlement arrives later as a tx_status frame that resolves the handle.
func (c *Client) submit(ctx context.Context, method string, params interface{}) (*ledger.TxHandle, error) {
	var result struct {
		Hash string `json:"hash"`
	}
	if err := c.call(ctx, method, params, &result); err != nil {
		return nil, err
	}
	if result.Hash == "" {
		return nil, ledger.E(ledger.KindConnection, method, "endpoint accepted the call without a transaction hash")
	}

	h := ledger.NewTxHandle(result.Hash)
	c.mu.Lock()
	if receipt, ok := c.early[result.Hash]; ok {
		delete(c.early, result.Hash)
		c.mu.Unlock()
		h.Resolve(receipt)
		return h, nil
	}
	if c.closed {
		readErr := c.readErr
		c.mu.Unlock()
		h.Fail(ledger.WrapErr(ledger.KindConnection, method, readErr))
		return h, nil
	}
	c.txs[result.Hash] = h
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{
		"method": method,
		"hash":   result.Hash,
	}).Debug("transaction submitted")
	return h, nil
}

// mapRemoteError converts an endpoint error code into the client taxonomy.
func mapRemoteError(op string, re *remoteError) error {
	code := strings.ToLower(re.Code)
	switch {
	case code == "rejected":
		return ledger.E(ledger.KindUserRejected, op, firstNonEmpty(re.Message, "request rejected"))
	case code == "revert" || code == "reverted":
		return ledger.E(ledger.KindRevert, op, firstNonEmpty(re.Message, "transaction reverted"))
	case code == "out_of_gas":
		return ledger.E(ledger.KindMinedFailure, op, firstNonEmpty(re.Message, "transaction ran out of gas"))
	case code == "phase":
		return ledger.E(ledger.KindPhaseViolation, op, firstNonEmpty(re.Message, "wrong game phase"))
	case code == "invalid_params" || code == "unauthorized":
		return ledger.E(ledger.KindValidation, op, firstNonEmpty(re.Message, "invalid request"))
	case code == "connection":
		return ledger.E(ledger.KindConnection, op, firstNonEmpty(re.Message, "connection lost"))
	default:
		return ledger.E(ledger.KindUnknown, op, firstNonEmpty(re.Message, "ledger error "+re.Code))
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// --- game surface ---

type betParams struct {
	Amount ledger.Amount `json:"amount"`
}

func (c *Client) PlaceBet(ctx context.Context, amount ledger.Amount) (*ledger.TxHandle, error) {
	return c.submit(ctx, "game.placeBet", betParams{Amount: amount})
}

func (c *Client) Hit(ctx context.Context) (*ledger.TxHandle, error) {
	return c.submit(ctx, "game.hit", nil)
}

func (c *Client) Stand(ctx context.Context) (*ledger.TxHandle, error) {
	return c.submit(ctx, "game.stand", nil)
}

type addressParams struct {
	Address string `json:"address"`
}

func (c *Client) GetGameState(ctx context.Context, address string) (*ledger.GameSnapshot, error) {
	var snap ledger.GameSnapshot
	if err := c.call(ctx, "game.getGameState", addressParams{Address: address}, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

type editHandParams struct {
	Address      string            `json:"address"`
	IsPlayerHand bool              `json:"isPlayerHand"`
	Cards        []ledger.CardRank `json:"cards"`
}

func (c *Client) EditHand(ctx context.Context, address string, isPlayerHand bool, cards []ledger.CardRank) (*ledger.TxHandle, error) {
	return c.submit(ctx, "game.editHand", editHandParams{
		Address:      address,
		IsPlayerHand: isPlayerHand,
		Cards:        cards,
	})
}

func (c *Client) ForceEndGame(ctx context.Context, address string) (*ledger.TxHandle, error) {
	return c.submit(ctx, "game.forceEndGame", addressParams{Address: address})
}

func (c *Client) Withdraw(ctx context.Context, amount ledger.Amount) (*ledger.TxHandle, error) {
	return c.submit(ctx, "game.withdraw", betParams{Amount: amount})
}

// --- stats surface ---

func (c *Client) GetStats(ctx context.Context, address string) (*ledger.PlayerStats, error) {
	var stats ledger.PlayerStats
	if err := c.call(ctx, "stats.getStats", addressParams{Address: address}, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) GetTopPlayers(ctx context.Context) ([]ledger.LeaderboardEntry, error) {
	var board []ledger.LeaderboardEntry
	if err := c.call(ctx, "stats.getTopPlayers", nil, &board); err != nil {
		return nil, err
	}
	return board, nil
}

type nameParams struct {
	Name string `json:"name"`
}

func (c *Client) SetName(ctx context.Context, name string) (*ledger.TxHandle, error) {
	return c.submit(ctx, "stats.setName", nameParams{Name: name})
}

func (c *Client) UpdateLeaderboard(ctx context.Context, address string) (*ledger.TxHandle, error) {
	return c.submit(ctx, "stats.updateLeaderboard", addressParams{Address: address})
}

func (c *Client) GetNetProfit(ctx context.Context, address string) (ledger.Amount, error) {
	var out ledger.Amount
	if err := c.call(ctx, "stats.getNetProfit", addressParams{Address: address}, &out); err != nil {
		return ledger.ZeroAmount(), err
	}
	return out, nil
}

func (c *Client) GetPlayerName(ctx context.Context, address string) (string, error) {
	var out string
	if err := c.call(ctx, "stats.getPlayerName", addressParams{Address: address}, &out); err != nil {
		return "", err
	}
	return out, nil
}

func (c *Client) GetAllPlayers(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.call(ctx, "stats.getAllPlayers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// --- token surface ---

type approveParams struct {
	Spender string        `json:"spender"`
	Amount  ledger.Amount `json:"amount"`
}

func (c *Client) Approve(ctx context.Context, spender string, amount ledger.Amount) (*ledger.TxHandle, error) {
	return c.submit(ctx, "token.approve", approveParams{Spender: spender, Amount: amount})
}

type allowanceParams struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
}

func (c *Client) Allowance(ctx context.Context, owner, spender string) (ledger.Amount, error) {
	var out ledger.Amount
	if err := c.call(ctx, "token.allowance", allowanceParams{Owner: owner, Spender: spender}, &out); err != nil {
		return ledger.ZeroAmount(), err
	}
	return out, nil
}

func (c *Client) BalanceOf(ctx context.Context, address string) (ledger.Amount, error) {
	var out ledger.Amount
	if err := c.call(ctx, "token.balanceOf", addressParams{Address: address}, &out); err != nil {
		return ledger.ZeroAmount(), err
	}
	return out, nil
}

func (c *Client) GameAddress() string { return c.gameAddress }

var _ ledger.Gateway = (*Client)(nil)
