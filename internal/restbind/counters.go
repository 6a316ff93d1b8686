/******************************************************************************
*
*  Copyright 2026 SAP SE
*
*  Licensed under the Apache License, Version 2.0 (the "License");
*  you may not use this file except in compliance with the License.
*  You may obtain a copy of the License at
*
*      http://www.apache.org/licenses/LICENSE-2.0
*
*  Unless required by applicable law or agreed to in writing, software
*  distributed under the License is distributed on an "AS IS" BASIS,
*  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
*  See the License for the specific language governing permissions and
*  limitations under the License.
*
******************************************************************************/

package restbind

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

//CounterName identifies one of the request counters of an application.
type CounterName string

//Possible values for CounterName.
const (
	CounterIn      CounterName = "in"
	CounterOut     CounterName = "out"
	CounterProcess CounterName = "process"
)

var (
	//RequestsInCounter is a prometheus.CounterVec.
	RequestsInCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restbind_requests_in",
			Help: "Counts requests that entered an endpoint pipeline.",
		},
		[]string{"application"},
	)
	//RequestsOutCounter is a prometheus.CounterVec.
	RequestsOutCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restbind_requests_out",
			Help: "Counts requests that left an endpoint pipeline with a response.",
		},
		[]string{"application"},
	)
	//RequestsInProcessGauge is a prometheus.GaugeVec.
	RequestsInProcessGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "restbind_requests_in_process",
			Help: "Number of requests that are currently inside an endpoint pipeline.",
		},
		[]string{"application"},
	)
)

func init() {
	prometheus.MustRegister(RequestsInCounter)
	prometheus.MustRegister(RequestsOutCounter)
	prometheus.MustRegister(RequestsInProcessGauge)
}

//Counters tracks the requests of one application instance. The values are
//mirrored into the prometheus metrics above, and optionally into events.
type Counters struct {
	application string
	emitter     *Emitter
	emitOn      map[CounterName]bool

	in      int64
	out     int64
	process int64
}

//NewCounters prepares a Counters instance. The emitter may be nil. An
//EventCounter is emitted on every change of a counter that is listed in
//emitOn.
func NewCounters(application string, emitter *Emitter, emitOn map[CounterName]bool) *Counters {
	if emitOn == nil {
		emitOn = map[CounterName]bool{}
	}
	return &Counters{
		application: application,
		emitter:     emitter,
		emitOn:      emitOn,
	}
}

//RequestStarted is called when a request enters an endpoint pipeline.
func (c *Counters) RequestStarted() {
	in := atomic.AddInt64(&c.in, 1)
	process := atomic.AddInt64(&c.process, 1)
	RequestsInCounter.WithLabelValues(c.application).Inc()
	RequestsInProcessGauge.WithLabelValues(c.application).Inc()
	c.notify(CounterIn, in)
	c.notify(CounterProcess, process)
}

//RequestFinished is called when a request leaves an endpoint pipeline.
func (c *Counters) RequestFinished() {
	out := atomic.AddInt64(&c.out, 1)
	process := atomic.AddInt64(&c.process, -1)
	RequestsOutCounter.WithLabelValues(c.application).Inc()
	RequestsInProcessGauge.WithLabelValues(c.application).Dec()
	c.notify(CounterOut, out)
	c.notify(CounterProcess, process)
}

//Get returns the current value of a counter.
func (c *Counters) Get(name CounterName) int64 {
	switch name {
	case CounterIn:
		return atomic.LoadInt64(&c.in)
	case CounterOut:
		return atomic.LoadInt64(&c.out)
	case CounterProcess:
		return atomic.LoadInt64(&c.process)
	default:
		return 0
	}
}

func (c *Counters) notify(name CounterName, value int64) {
	if c.emitOn[name] {
		c.emitter.Emit(Event{Name: EventCounter, Counter: name, Value: value})
	}
}
