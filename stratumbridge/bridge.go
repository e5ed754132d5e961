// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package stratumbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/btcsuite/go-socks/socks"
	"github.com/decred/dcrd/lru"

	"github.com/odopool/odopool/minerproto"
)

// seenJobsLimit bounds the recent-job-id set used to log each distinct job
// exactly once, rather than on every notify (a busy upstream can resend the
// same job_id across several notifies without clean_jobs).
const seenJobsLimit = 64

// Config configures a Bridge.
type Config struct {
	// UpstreamAddr is the Stratum V1 server's host:port.
	UpstreamAddr string

	// ListenAddr is where the bridge accepts miner connections.
	ListenAddr string

	// Testnet selects the testnet odo shapechange interval.
	Testnet bool

	// PoolUser and PoolPassword are this bridge's upstream credentials.
	// When set, they override any username/password a downstream miner
	// sends with "auth" — every miner shares this bridge's single pool
	// account rather than authenticating individually upstream.
	PoolUser     string
	PoolPassword string

	// WorkerSuffix, when true, appends "_<client-arg>" to PoolUser using
	// the client-supplied username as the suffix, matching stratum.py's
	// -w/--workers flag.
	WorkerSuffix bool

	// ReconnectMaxBackoff caps the upstream reconnect back-off. Defaults
	// to 10s when zero.
	ReconnectMaxBackoff time.Duration

	// ProxyAddr, when set, routes the upstream pool connection through a
	// SOCKS4/5 proxy at this host:port instead of dialing it directly.
	ProxyAddr     string
	ProxyUser     string
	ProxyPassword string

	// Verbose enables the one-time odo-key-source debug log line.
	Verbose bool
}

func (c Config) maxBackoff() time.Duration {
	if c.ReconnectMaxBackoff <= 0 {
		return 10 * time.Second
	}
	return c.ReconnectMaxBackoff
}

// Bridge is a bidirectional TCP proxy between one upstream Stratum V1 pool
// connection and any number of miners speaking minerproto. All downstream
// miners share the single upstream connection and its credentials, mirroring
// the original stratum.py proxy: every translated upstream line is
// broadcast to every connected miner, and every miner's auth/submit_nonce
// line is forwarded upstream under the bridge's own request-id sequence.
type Bridge struct {
	cfg Config

	mu                  sync.Mutex
	enonce1             string
	n2len               int
	haveSubscribeParams bool
	extraNonce2         uint64
	nextReqID           int
	sessions            map[*bridgeSession]struct{}
	codec               *codec
	loggedConnectedLine bool
	loggedOdoKeySource  bool
	currentTargetHex    string
	authUser            string
	seenJobs            *lru.Cache[string]
}

// NewBridge returns a Bridge configured per cfg.
func NewBridge(cfg Config) *Bridge {
	return &Bridge{
		cfg:       cfg,
		nextReqID: 1,
		sessions:  make(map[*bridgeSession]struct{}),
		seenJobs:  lru.NewCache[string](seenJobsLimit),
	}
}

// bridgeSession is one miner TCP connection registered with the bridge.
type bridgeSession struct {
	conn   net.Conn
	sendMu sync.Mutex
}

func (s *bridgeSession) send(line string) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := s.conn.Write([]byte(line + "\n")); err != nil {
		log.Debugf("stratumbridge: write to miner %s failed: %v", s.conn.RemoteAddr(), err)
	}
}

// Run drives the upstream connection with reconnect and capped exponential
// back-off until ctx is canceled.
func (b *Bridge) Run(ctx context.Context) {
	backoff := 1 * time.Second
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		b.mu.Lock()
		b.loggedConnectedLine = false
		b.loggedOdoKeySource = false
		b.mu.Unlock()

		err := b.runOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		log.Errorf("stratumbridge: upstream connection lost: %v", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if max := b.cfg.maxBackoff(); backoff > max {
			backoff = max
		}
	}
}

// dialUpstream dials the upstream pool directly, or through cfg.ProxyAddr
// when set. The SOCKS dial has no context support, matching go-socks' API.
func (b *Bridge) dialUpstream(ctx context.Context) (net.Conn, error) {
	if b.cfg.ProxyAddr == "" {
		var d net.Dialer
		return d.DialContext(ctx, "tcp", b.cfg.UpstreamAddr)
	}
	proxy := &socks.Proxy{
		Addr:     b.cfg.ProxyAddr,
		Username: b.cfg.ProxyUser,
		Password: b.cfg.ProxyPassword,
	}
	return proxy.Dial("tcp", b.cfg.UpstreamAddr)
}

// runOnce dials the upstream pool, subscribes, and processes messages until
// the connection fails or ctx is canceled.
func (b *Bridge) runOnce(ctx context.Context) error {
	conn, err := b.dialUpstream(ctx)
	if err != nil {
		return fmt.Errorf("dial upstream: %w", err)
	}
	defer conn.Close()

	c := newCodec(conn)

	b.mu.Lock()
	b.codec = c
	b.haveSubscribeParams = false
	b.extraNonce2 = 0
	b.currentTargetHex = ""
	b.mu.Unlock()

	if err := c.sendRequest(&upstreamRequest{ID: 0, Method: "mining.subscribe", Params: []string{"odominer"}}); err != nil {
		return fmt.Errorf("send subscribe: %w", err)
	}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		msg, err := c.readMessage()
		if err != nil {
			return err
		}
		b.handleUpstreamMessage(msg)
	}
}

// handleUpstreamMessage translates one upstream Stratum V1 line into the
// downstream miner protocol and broadcasts the result to every connected
// miner.
func (b *Bridge) handleUpstreamMessage(msg *upstreamMessage) {
	if msg.RejectReason != nil {
		if *msg.RejectReason == "Stale" {
			b.broadcast(minerproto.Result("stale"))
		} else {
			b.broadcast(minerproto.Result("inconclusive"))
		}
		return
	}

	if msg.isNotification() {
		switch msg.Method {
		case "mining.set_difficulty":
			b.handleSetDifficulty(msg.Params)
		case "mining.notify":
			b.handleNotify(msg.Params)
		}
		return
	}

	// A response to a request this bridge sent: id 0 is always the
	// subscribe reply; id 1 is the very first request issued after that
	// (conventionally the first miner's authorize).
	var id int
	_ = json.Unmarshal(msg.ID, &id)

	if id == 0 {
		b.handleSubscribeResult(msg.Result)
		return
	}

	var ok bool
	if err := json.Unmarshal(msg.Result, &ok); err == nil {
		if ok && id == 1 {
			b.broadcast(minerproto.Authorized())
		} else if ok {
			b.broadcast(minerproto.Result("accepted"))
		}
		return
	}

	// Neither a recognized notification nor a boolean result: log the raw
	// JSON so an operator can see it rather than silently dropping it.
	log.Debugf("stratumbridge: unrecognized upstream message id=%v", string(msg.ID))
}

func (b *Bridge) handleSubscribeResult(result json.RawMessage) {
	var fields []json.RawMessage
	if err := json.Unmarshal(result, &fields); err != nil || len(fields) < 3 {
		log.Errorf("stratumbridge: malformed mining.subscribe result: %v", err)
		return
	}
	var enonce1 string
	var n2len int
	if err := json.Unmarshal(fields[1], &enonce1); err != nil {
		log.Errorf("stratumbridge: malformed subscribe enonce1: %v", err)
		return
	}
	if err := json.Unmarshal(fields[2], &n2len); err != nil {
		log.Errorf("stratumbridge: malformed subscribe n2len: %v", err)
		return
	}

	b.mu.Lock()
	b.enonce1 = enonce1
	b.n2len = n2len
	b.haveSubscribeParams = true
	b.mu.Unlock()

	b.broadcast(minerproto.SetSubscribeParams(enonce1, n2len))
}

func (b *Bridge) handleSetDifficulty(params json.RawMessage) {
	var args []float64
	if err := json.Unmarshal(params, &args); err != nil || len(args) < 1 {
		log.Errorf("stratumbridge: malformed mining.set_difficulty params: %v", err)
		return
	}
	diff := args[0]
	if diff < 1 {
		diff = 1
	}
	target := difficultyToHexTarget(diff)

	b.mu.Lock()
	firstConnect := !b.loggedConnectedLine
	b.loggedConnectedLine = true
	upstreamAddr := b.cfg.UpstreamAddr
	b.currentTargetHex = target
	b.mu.Unlock()

	if firstConnect {
		b.broadcast(minerproto.Connected(upstreamAddr))
	}
	b.broadcast(minerproto.SetTarget(target, int(diff)))
}

func (b *Bridge) handleNotify(params json.RawMessage) {
	job, err := parseNotify(params)
	if err != nil {
		log.Errorf("stratumbridge: %v", err)
		return
	}

	b.mu.Lock()
	if !b.haveSubscribeParams {
		b.mu.Unlock()
		// A notify before subscribe params are known was a bug in the
		// legacy bridge, which would process it with an uninitialized
		// n2len. We fail the connection instead.
		log.Errorf("stratumbridge: mining.notify received before set_subscribe_params")
		if b.codec != nil {
			b.codec.Close()
		}
		return
	}
	// clean_jobs always resets the counter to zero — whether it was
	// already zero or mid-epoch makes no difference to the result — and
	// every other notify increments it.
	if job.cleanJobs {
		b.extraNonce2 = 0
	} else {
		b.extraNonce2++
	}
	extraNonce2 := b.extraNonce2
	enonce1 := b.enonce1
	n2len := b.n2len
	b.mu.Unlock()

	extraNonce2Hex := n2hex(extraNonce2, n2len)

	if !b.seenJobs.Contains(job.jobID) {
		b.seenJobs.Add(job.jobID)
		log.Debugf("stratumbridge: new job %s, clean_jobs=%v", job.jobID, job.cleanJobs)
	}

	hdr, err := buildNotifyHeader(job, enonce1, extraNonce2Hex)
	if err != nil {
		log.Errorf("stratumbridge: %v", err)
		return
	}

	odoKey, fromExtension := b.resolveOdoKey(job)
	if b.cfg.Verbose {
		b.mu.Lock()
		shouldLog := !b.loggedOdoKeySource
		b.loggedOdoKeySource = true
		b.mu.Unlock()
		if shouldLog {
			if fromExtension {
				log.Debugf("stratumbridge: odokey is provided by mining.notify, value is %d", odoKey)
			} else {
				log.Debugf("stratumbridge: odokey is not provided by mining.notify, calculated from nTime, value is %d", odoKey)
			}
		}
	}

	// target is whatever mining.set_difficulty last established; default
	// to the maximum target if none has been received yet.
	b.mu.Lock()
	target := b.currentTargetHex
	b.mu.Unlock()
	if target == "" {
		target = difficultyToHexTarget(0)
	}

	b.broadcast(minerproto.WorkBridge(hdr.headerHex, target, odoKey, job.jobID, job.ntimeHex, extraNonce2Hex))
}

func (b *Bridge) resolveOdoKey(job *notifyJob) (odoKey uint32, fromExtension bool) {
	if job.odoKey != nil {
		return *job.odoKey, true
	}
	ntime, err := strconv.ParseUint(job.ntimeHex, 16, 32)
	if err != nil {
		return 0, false
	}
	return odoKeyFromNtime(uint32(ntime), b.cfg.Testnet), false
}

// broadcast sends line to every registered miner session.
func (b *Bridge) broadcast(line string) {
	b.mu.Lock()
	sessions := make([]*bridgeSession, 0, len(b.sessions))
	for s := range b.sessions {
		sessions = append(sessions, s)
	}
	b.mu.Unlock()

	for _, s := range sessions {
		s.send(line)
	}
}

func (b *Bridge) nextRequestID() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextReqID
	b.nextReqID++
	return id
}

// ServeMiners accepts miner connections on cfg.ListenAddr until ctx is
// canceled.
func (b *Bridge) ServeMiners(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", b.cfg.ListenAddr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go b.handleMiner(conn)
	}
}

func (b *Bridge) handleMiner(conn net.Conn) {
	session := &bridgeSession{conn: conn}

	b.mu.Lock()
	b.sessions[session] = struct{}{}
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.sessions, session)
		b.mu.Unlock()
		conn.Close()
	}()

	reader := minerproto.NewReader(conn)
	for {
		line, err := reader.ReadLine()
		if err != nil {
			return
		}

		msg, err := minerproto.ParseMinerLine(line)
		if err != nil {
			log.Debugf("stratumbridge: dropping unparseable line from %s: %q", conn.RemoteAddr(), line)
			continue
		}

		switch m := msg.(type) {
		case *minerproto.Auth:
			b.forwardAuth(m)
		case *minerproto.SubmitNonce:
			b.forwardSubmitNonce(m)
		default:
			log.Debugf("stratumbridge: unexpected miner message type from %s", conn.RemoteAddr())
		}
	}
}

// forwardAuth translates a miner's "auth" line into mining.authorize,
// applying the pool-credentials override when configured.
func (b *Bridge) forwardAuth(a *minerproto.Auth) {
	user, pass := a.User, a.Pass
	if b.cfg.PoolUser != "" {
		user = b.cfg.PoolUser
		if b.cfg.WorkerSuffix {
			user = user + "_" + a.User
		}
		pass = b.cfg.PoolPassword
	}

	b.mu.Lock()
	b.authUser = user
	b.mu.Unlock()

	b.sendUpstream("mining.authorize", []string{user, pass})
}

// forwardSubmitNonce translates a miner's "submit_nonce" line into
// mining.submit. The worker name is whichever "auth" line last authorized
// on this shared upstream session — every miner shares one pool account,
// so there is exactly one.
func (b *Bridge) forwardSubmitNonce(sn *minerproto.SubmitNonce) {
	b.mu.Lock()
	n2len := b.n2len
	user := b.authUser
	b.mu.Unlock()

	extraNonce2Hex := n2hex(sn.ExtraNonce2Dec, n2len)
	params := []string{user, sn.NonceHex, extraNonce2Hex, sn.HeaderHex, sn.NtimeHex}
	b.sendUpstream("mining.submit", params)
}

func (b *Bridge) sendUpstream(method string, params any) {
	id := b.nextRequestID()

	b.mu.Lock()
	c := b.codec
	b.mu.Unlock()

	if c == nil {
		log.Errorf("stratumbridge: cannot send %s, no upstream connection", method)
		return
	}
	if err := c.sendRequest(&upstreamRequest{ID: id, Method: method, Params: params}); err != nil {
		log.Errorf("stratumbridge: send %s failed: %v", method, err)
	}
}
