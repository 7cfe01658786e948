package datastore

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	custom_err "github.com/Viet-ph/redis-ae/internal/error"
)

var (
	ErrorSyntax        = errors.New("ERR syntax error")
	ErrorNotInteger    = errors.New("ERR value is not an integer or out of range")
	ErrorInvalidExpire = errors.New("ERR invalid expire time in 'set' command")
)

// activeExpireRuns bounds how many sampling rounds a single ActiveExpire
// call performs.
const activeExpireRuns = 16

type Datastore struct {
	store  map[string]*Data
	expiry map[string]time.Time
	now    func() time.Time
}

func NewDatastore(store map[string]*Data, expiry map[string]time.Time) *Datastore {
	if store == nil {
		store = make(map[string]*Data)
	}

	if expiry == nil {
		expiry = make(map[string]time.Time)
	}
	return &Datastore{
		store:  store,
		expiry: expiry,
		now:    time.Now,
	}
}

type setOptions struct {
	ttl     time.Duration
	hasTTL  bool
	onlyNew bool
	onlyOld bool
}

// Set stores value under key. Recognised options are EX seconds, PX
// milliseconds, NX and XX. A previous ttl is dropped unless a new one is
// given. When NX or XX prevents the write, custom_err.ErrorNotSet is
// returned and the keyspace is left untouched.
func (ds *Datastore) Set(key string, value any, options []string) error {
	opts, err := parseSetOptions(options)
	if err != nil {
		return err
	}

	_, exists := ds.lookup(key)
	if (opts.onlyNew && exists) || (opts.onlyOld && !exists) {
		return custom_err.ErrorNotSet
	}

	ds.store[key] = NewData(value)
	delete(ds.expiry, key)
	if opts.hasTTL {
		ds.expiry[key] = ds.now().Add(opts.ttl)
	}

	return nil
}

func parseSetOptions(options []string) (setOptions, error) {
	var opts setOptions
	for i := 0; i < len(options); i++ {
		switch strings.ToUpper(options[i]) {
		case "NX":
			if opts.onlyOld {
				return opts, ErrorSyntax
			}
			opts.onlyNew = true
		case "XX":
			if opts.onlyNew {
				return opts, ErrorSyntax
			}
			opts.onlyOld = true
		case "EX", "PX":
			if opts.hasTTL || i+1 >= len(options) {
				return opts, ErrorSyntax
			}
			ttl, err := parseTTL(options[i+1], strings.ToUpper(options[i]) == "PX")
			if err != nil {
				return opts, err
			}
			opts.ttl, opts.hasTTL = ttl, true
			i++
		default:
			return opts, ErrorSyntax
		}
	}

	return opts, nil
}

func parseTTL(raw string, inMillisecond bool) (time.Duration, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, ErrorNotInteger
	}
	if n <= 0 {
		return 0, ErrorInvalidExpire
	}

	unit := time.Second
	if inMillisecond {
		unit = time.Millisecond
	}
	if n > math.MaxInt64/int64(unit) {
		return 0, ErrorInvalidExpire
	}

	return time.Duration(n) * unit, nil
}

func (ds *Datastore) GetExpiry(key string) (time.Time, bool) {
	expireAt, exist := ds.expiry[key]
	if exist {
		return expireAt, true
	}

	return time.Time{}, false
}

func (ds *Datastore) isExpired(key string) bool {
	expireAt, exist := ds.expiry[key]
	if exist {
		return !ds.now().Before(expireAt)
	}

	return false
}

// lookup returns the live entry for key, evicting it first if its ttl has
// passed.
func (ds *Datastore) lookup(key string) (*Data, bool) {
	data, exists := ds.store[key]
	if !exists {
		return nil, false
	}

	if ds.isExpired(key) {
		ds.evict(key)
		return nil, false
	}

	return data, true
}

func (ds *Datastore) evict(key string) {
	delete(ds.store, key)
	delete(ds.expiry, key)
}

func (ds *Datastore) Get(key string) (value any, exists bool) {
	data, exists := ds.lookup(key)
	if !exists {
		return nil, false
	}

	return data.value, true
}

// Del removes keys and returns how many of them existed.
func (ds *Datastore) Del(keys ...string) int {
	deleted := 0
	for _, key := range keys {
		if _, exists := ds.lookup(key); exists {
			ds.evict(key)
			deleted++
		}
	}

	return deleted
}

// Exists counts the keys that are present. A key named twice counts twice.
func (ds *Datastore) Exists(keys ...string) int {
	count := 0
	for _, key := range keys {
		if _, exists := ds.lookup(key); exists {
			count++
		}
	}

	return count
}

// GetStoreSize returns the number of keys and the number of keys with a ttl.
func (ds *Datastore) GetStoreSize() (int, int) {
	return len(ds.store), len(ds.expiry)
}

// ActiveExpire samples up to samples keys that carry a ttl and evicts the
// expired ones. While more than a quarter of a sample turns out expired it
// samples again, up to a fixed number of rounds. It returns the number of
// keys evicted.
func (ds *Datastore) ActiveExpire(samples int) int {
	if samples <= 0 {
		return 0
	}

	total := 0
	for run := 0; run < activeExpireRuns && len(ds.expiry) > 0; run++ {
		now := ds.now()
		checked, expired := 0, 0
		// Map iteration order is randomised, which makes this a sample.
		for key, expireAt := range ds.expiry {
			if checked == samples {
				break
			}
			checked++
			if !now.Before(expireAt) {
				ds.evict(key)
				expired++
			}
		}

		total += expired
		if expired <= samples/4 {
			break
		}
	}

	return total
}
