package perf

import (
	"expvar"
	"net/http"

	"github.com/encodeous/metric"
)

var (
	DispatchLatency     = metric.NewHistogram("1m1s")
	SendBatchSize       = metric.NewHistogram("10s1s")
	SentPacketPerSecond = metric.NewCounter("10s1s")
	RecvPacketPerSecond = metric.NewCounter("10s1s")
	SentBytesPerSecond  = metric.NewCounter("10s1s")
	RecvBytesPerSecond  = metric.NewCounter("10s1s")
	ForwardedPerSecond  = metric.NewCounter("10s1s")
	MalformedPerSecond  = metric.NewCounter("10s1s")
)

func init() {
	expvar.Publish("olsr:SendBatchSize", SendBatchSize)
	expvar.Publish("olsr:SentPacket/s", SentPacketPerSecond)
	expvar.Publish("olsr:RecvPacket/s", RecvPacketPerSecond)
	expvar.Publish("olsr:SentBytes/s", SentBytesPerSecond)
	expvar.Publish("olsr:RecvBytes/s", RecvBytesPerSecond)
	expvar.Publish("olsr:Forwarded/s", ForwardedPerSecond)
	expvar.Publish("olsr:Malformed/s", MalformedPerSecond)
	expvar.Publish("olsr:DispatchLatency (µs)", DispatchLatency)
}

// Handler serves every published metric as html
func Handler() http.Handler {
	return metric.Handler(metric.Exposed)
}
