package state

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MessageId uniquely identifies a flooded message
type MessageId struct {
	Originator netip.Addr
	Seqno      uint16
}

func (m MessageId) String() string {
	return fmt.Sprintf("%s#%d", m.Originator, m.Seqno)
}

type DuplicateRecord struct {
	MessageId
	ReceivedAt    time.Time
	Retransmitted bool
}

// DuplicateSet remembers recently seen messages for DUP_HOLD_TIME.
// Processing and retransmission are tracked separately: a record may exist without having been relayed.
type DuplicateSet struct {
	cache *ttlcache.Cache[MessageId, *DuplicateRecord]
}

func NewDuplicateSet(hold time.Duration) *DuplicateSet {
	return &DuplicateSet{
		cache: ttlcache.New[MessageId, *DuplicateRecord](
			ttlcache.WithTTL[MessageId, *DuplicateRecord](hold),
			ttlcache.WithDisableTouchOnHit[MessageId, *DuplicateRecord](),
		),
	}
}

func (d *DuplicateSet) get(id MessageId) *DuplicateRecord {
	item := d.cache.Get(id)
	if item == nil {
		return nil
	}
	return item.Value()
}

func (d *DuplicateSet) IsDuplicate(id MessageId) bool {
	return d.get(id) != nil
}

func (d *DuplicateSet) IsRetransmitted(id MessageId) bool {
	rec := d.get(id)
	return rec != nil && rec.Retransmitted
}

// Record creates a fresh record for id, replacing any previous one.
func (d *DuplicateSet) Record(id MessageId, now time.Time) {
	d.cache.Set(id, &DuplicateRecord{
		MessageId:  id,
		ReceivedAt: now,
	}, ttlcache.DefaultTTL)
}

func (d *DuplicateSet) MarkRetransmitted(id MessageId, now time.Time) {
	rec := d.get(id)
	if rec == nil {
		rec = &DuplicateRecord{
			MessageId:  id,
			ReceivedAt: now,
		}
		d.cache.Set(id, rec, ttlcache.DefaultTTL)
	}
	rec.Retransmitted = true
}

// Cleanup evicts every record older than the retention window
func (d *DuplicateSet) Cleanup() {
	d.cache.DeleteExpired()
}

func (d *DuplicateSet) Len() int {
	return d.cache.Len()
}

func (d *DuplicateSet) Records() []DuplicateRecord {
	recs := make([]DuplicateRecord, 0, d.cache.Len())
	for _, item := range d.cache.Items() {
		if item.IsExpired() {
			continue
		}
		recs = append(recs, *item.Value())
	}
	return recs
}
