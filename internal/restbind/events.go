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

import "sync"

//EventName identifies a kind of Event.
type EventName string

//Possible values for EventName.
const (
	EventReady            EventName = "ready"
	EventError            EventName = "error"
	EventAuthFailed       EventName = "auth-failed"
	EventClosing          EventName = "closing"
	EventClosed           EventName = "closed"
	EventCounter          EventName = "counter"
	EventExtensionsLoaded EventName = "extensions-loaded"
)

//Event is something that happened inside an application instance. Only the
//fields that make sense for the respective Name are filled.
type Event struct {
	Name EventName
	Err  error
	//for request-related events
	Verb string
	Path string
	//for EventCounter
	Counter CounterName
	Value   int64
}

//Listener receives events from an Emitter.
type Listener func(Event)

//Emitter is a synchronous event bus. Listeners run on the goroutine that
//emits the event, in the order in which they were registered.
type Emitter struct {
	mutex     sync.RWMutex
	listeners map[EventName][]Listener
}

//On registers a listener for the given event.
func (e *Emitter) On(name EventName, l Listener) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.listeners == nil {
		e.listeners = make(map[EventName][]Listener)
	}
	e.listeners[name] = append(e.listeners[name], l)
}

//Emit delivers the event to all listeners for its name. Emitting on a nil
//Emitter does nothing.
func (e *Emitter) Emit(ev Event) {
	if e == nil {
		return
	}
	e.mutex.RLock()
	listeners := append([]Listener(nil), e.listeners[ev.Name]...)
	e.mutex.RUnlock()

	for _, l := range listeners {
		l(ev)
	}
}
