package link

import (
	"container/list"
	"net/url"
	"strings"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
)

// MQTTHandler is the callback when a message is received.
type MQTTHandler func(topic string, payload []byte)

// MQTTQueue wraps MQTT client. Topics are relative to TopicPrefix.
type MQTTQueue struct {
	Client      paho.Client
	TopicPrefix string

	subsLock     sync.RWMutex
	subs         map[string]*list.List
	wildcardSubs map[string]*list.List
}

// MQTTSubscription is a subscribed topic.
type MQTTSubscription struct {
	Token paho.Token

	queue   *MQTTQueue
	elm     *list.Element
	topic   string
	handler MQTTHandler
}

// MatchTopic matches topic with pattern.
func MatchTopic(topic, pattern string) bool {
	tokensT, tokensP := strings.Split(topic, "/"), strings.Split(pattern, "/")
	for i, token := range tokensP {
		if token == "#" && i+1 == len(tokensP) {
			return true
		}
		if i >= len(tokensT) {
			return false
		}
		if token != "+" && token != tokensT[i] {
			return false
		}
	}
	return len(tokensP) == len(tokensT)
}

func isWildcard(topic string) bool {
	return strings.Contains(topic, "+") || strings.HasSuffix(topic, "#")
}

// MQTTOptionsFromURL creates ClientOptions from URL. The URL path is the
// topic prefix.
func MQTTOptionsFromURL(serverURL string) (*paho.ClientOptions, string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, "", err
	}
	server := "tcp"
	if u.Scheme == "mqtts" {
		server = "ssl"
	}
	server += "://" + u.Host

	topicPrefix := strings.TrimPrefix(u.Path, "/")
	if topicPrefix != "" && !strings.HasSuffix(topicPrefix, "/") {
		topicPrefix += "/"
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(server).
		SetAutoReconnect(true).
		SetCleanSession(true).
		SetOrderMatters(true)
	if u.User != nil {
		opts.SetUsername(u.User.Username())
		if pwd, ok := u.User.Password(); ok {
			opts.SetPassword(pwd)
		}
	}
	if clientID := u.Query().Get("client-id"); clientID != "" {
		opts.SetClientID(clientID)
	}
	return opts, topicPrefix, nil
}

// NewMQTTQueue creates MQTTQueue.
func NewMQTTQueue(options *paho.ClientOptions, topicPrefix string) *MQTTQueue {
	q := &MQTTQueue{
		TopicPrefix:  topicPrefix,
		subs:         make(map[string]*list.List),
		wildcardSubs: make(map[string]*list.List),
	}
	options.SetOnConnectHandler(q.onConnect)
	options.SetConnectionLostHandler(q.onConnectionLost)
	q.Client = paho.NewClient(options)
	return q
}

// Connect connects the client and waits for the result.
func (q *MQTTQueue) Connect() error {
	token := q.Client.Connect()
	token.Wait()
	return token.Error()
}

// Close implements io.Closer.
func (q *MQTTQueue) Close() error {
	q.Client.Disconnect(250)
	return nil
}

// Sub subscribes a topic.
func (q *MQTTQueue) Sub(topic string, handler MQTTHandler) *MQTTSubscription {
	q.subsLock.Lock()
	subs := q.subs
	if isWildcard(topic) {
		subs = q.wildcardSubs
	}
	lst := subs[topic]
	newSub := lst == nil
	if newSub {
		lst = list.New()
		subs[topic] = lst
	}
	sub := &MQTTSubscription{
		queue:   q,
		topic:   topic,
		handler: handler,
	}
	sub.elm = lst.PushBack(sub)
	q.subsLock.Unlock()

	if newSub {
		glog.V(2).Infof("SUB %q", q.TopicPrefix+topic)
		sub.Token = q.Client.Subscribe(q.TopicPrefix+topic, 1, q.dispatch)
	} else {
		sub.Token = &paho.DummyToken{}
	}
	return sub
}

// Pub publishes to a topic and waits until the message is sent.
func (q *MQTTQueue) Pub(topic string, payload []byte) error {
	token := q.Client.Publish(q.TopicPrefix+topic, 1, false, payload)
	token.Wait()
	return token.Error()
}

func (q *MQTTQueue) resubscribe() paho.Token {
	filters := make(map[string]byte)
	q.subsLock.RLock()
	for topic := range q.subs {
		filters[q.TopicPrefix+topic] = 1
	}
	for topic := range q.wildcardSubs {
		filters[q.TopicPrefix+topic] = 1
	}
	q.subsLock.RUnlock()
	if len(filters) == 0 {
		return &paho.DummyToken{}
	}
	return q.Client.SubscribeMultiple(filters, q.dispatch)
}

func (q *MQTTQueue) onConnect(paho.Client) {
	glog.Info("mqtt connected")
	q.resubscribe()
}

func (q *MQTTQueue) onConnectionLost(c paho.Client, err error) {
	glog.Warningf("mqtt connection lost: %v", err)
}

func (q *MQTTQueue) dispatch(c paho.Client, msg paho.Message) {
	q.deliver(msg.Topic(), msg.Payload())
}

func (q *MQTTQueue) deliver(topic string, payload []byte) {
	if !strings.HasPrefix(topic, q.TopicPrefix) {
		return
	}
	glog.V(4).Infof("RCV %q %d bytes", topic, len(payload))
	topic = topic[len(q.TopicPrefix):]
	var handlers []MQTTHandler
	q.subsLock.RLock()
	if lst := q.subs[topic]; lst != nil {
		for elm := lst.Front(); elm != nil; elm = elm.Next() {
			handlers = append(handlers, elm.Value.(*MQTTSubscription).handler)
		}
	}
	for key, lst := range q.wildcardSubs {
		if MatchTopic(topic, key) {
			for elm := lst.Front(); elm != nil; elm = elm.Next() {
				handlers = append(handlers, elm.Value.(*MQTTSubscription).handler)
			}
		}
	}
	q.subsLock.RUnlock()
	for _, h := range handlers {
		h(topic, payload)
	}
}

// Close unsubscribes the handler.
func (s *MQTTSubscription) Close() error {
	q := s.queue
	subs := q.subs
	if isWildcard(s.topic) {
		subs = q.wildcardSubs
	}
	q.subsLock.Lock()
	var unsub bool
	if lst := subs[s.topic]; lst != nil {
		lst.Remove(s.elm)
		if unsub = lst.Len() == 0; unsub {
			delete(subs, s.topic)
		}
	}
	q.subsLock.Unlock()
	if !unsub || !q.Client.IsConnected() {
		return nil
	}
	glog.V(2).Infof("UNSUB %q", q.TopicPrefix+s.topic)
	token := q.Client.Unsubscribe(q.TopicPrefix + s.topic)
	token.Wait()
	return token.Error()
}
