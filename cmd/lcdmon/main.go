package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/robotalks/fbrpc/pkg/l0/comm"
	"github.com/robotalks/fbrpc/pkg/link"
	"github.com/robotalks/fbrpc/pkg/rpc"
)

var (
	mqttURL    = "mqtt://localhost:1883/lcd/"
	maxPayload = 480*272*2 + 256
)

func init() {
	if val := os.Getenv("LCD_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.IntVar(&maxPayload, "max-payload", maxPayload, "Max frame payload in bytes.")
}

// topicStream reassembles frames carried on one topic.
type topicStream struct {
	ring *comm.RingBuffer
	asm  *comm.Assembler
}

func newTopicStream(topic string) *topicStream {
	describe := describeResponse
	if strings.HasSuffix(topic, link.TopicRx) {
		describe = rpc.DescribeRequest
	}
	return &topicStream{
		ring: comm.NewRingBuffer(maxPayload + comm.LengthPrefixSize + 1),
		asm: comm.NewAssembler(maxPayload, comm.FrameHandlerFuncs{
			OnFrame: func(_ context.Context, payload []byte) {
				desc, err := describe(payload)
				if err != nil {
					log.Printf("%s: bad payload (%d bytes): %v", topic, len(payload), err)
					return
				}
				log.Printf("%s: %s", topic, desc)
			},
			OnError: func(_ context.Context, err error) {
				log.Printf("%s: frame error: %v", topic, err)
			},
		}),
	}
}

func describeResponse(payload []byte) (string, error) {
	resp, err := rpc.DecodeResponse(payload)
	if err != nil {
		return "", err
	}
	return resp.String(), nil
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	opts, prefix, err := link.MQTTOptionsFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	q := link.NewMQTTQueue(opts, prefix)
	if err := q.Connect(); err != nil {
		log.Fatalln(err)
	}

	var lock sync.Mutex
	streams := make(map[string]*topicStream)
	q.Sub("#", func(topic string, payload []byte) {
		lock.Lock()
		defer lock.Unlock()
		s := streams[topic]
		if s == nil {
			s = newTopicStream(topic)
			streams[topic] = s
		}
		for _, b := range payload {
			s.ring.Push(b)
		}
		s.asm.Poll(context.Background(), s.ring)
	})
	<-(chan struct{})(nil)
}
