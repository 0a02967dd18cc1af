// Package rpc decodes CBOR encoded RPC requests received over L0 frames,
// dispatches them to method handlers and encodes the responses.
//
// A request is a map {"method": text, "params": map}. A response is a map
// {"status": "success"|"error", "message": text} with an optional
// "received_message" for the test method. Exactly one response is sent for
// every frame delivered to the Dispatcher.
package rpc
