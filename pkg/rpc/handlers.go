package rpc

import (
	"context"
	"errors"
)

// Methods served by the display device.
const (
	MethodDisplayImage   = "display_image"
	MethodClearDisplay   = "clear_display"
	MethodDisplayDefault = "display_default"
	MethodTest           = "test"
)

// Parameter names.
const (
	ParamImageData   = "image_data"
	ParamTestMessage = "test_message"
)

// MaxTestMessageLen is the longest accepted test_message.
const MaxTestMessageLen = 127

// FrameBufferSink is the display drawn by the handlers. The sink is owned
// by the poll context, no other writer touches the pixels.
type FrameBufferSink interface {
	// Capacity is the framebuffer size in bytes.
	Capacity() int
	// WritePixels copies p to the start of the framebuffer.
	WritePixels(p []byte)
	// Update presents the framebuffer content.
	Update()
	// Clear zeroes the framebuffer.
	Clear()
	// LoadDefault copies the built-in image and presents it.
	LoadDefault()
}

// RegisterHandlers registers all display methods on d.
func RegisterHandlers(d *Dispatcher, fb FrameBufferSink) *Dispatcher {
	return d.
		Handle(MethodDisplayImage, &DisplayImageHandler{Sink: fb}).
		HandleFunc(MethodClearDisplay, func(context.Context, *MapReader) (Response, error) {
			fb.Clear()
			fb.Update()
			return Success(MsgDisplayCleared), nil
		}).
		HandleFunc(MethodDisplayDefault, func(context.Context, *MapReader) (Response, error) {
			fb.LoadDefault()
			return Success(MsgDefaultDisplayed), nil
		}).
		HandleFunc(MethodTest, handleTest)
}

// DisplayImageHandler copies image_data straight from the request payload
// into the framebuffer.
type DisplayImageHandler struct {
	Sink FrameBufferSink
}

// HandleRPC implements Handler.
func (h *DisplayImageHandler) HandleRPC(ctx context.Context, root *MapReader) (Response, error) {
	params, err := enterParams(root, MsgParamsNotFound, MsgParamsNotMap)
	if err != nil {
		return Response{}, err
	}
	var displayed bool
	c := params.Cursor()
	for {
		key, ok, err := params.Next()
		if err != nil {
			return Response{}, failWith(MsgBadStructure, err)
		}
		if !ok {
			break
		}
		if key != ParamImageData {
			if err = params.SkipValue(); err != nil {
				return Response{}, failWith(MsgBadStructure, err)
			}
			continue
		}
		if c.Kind() != KindBytes {
			return Response{}, failWith(MsgImageNotBytes, ErrUnexpectedType)
		}
		data, err := c.ByteString()
		if err != nil {
			return Response{}, failWith(MsgImageInvalid, err)
		}
		if len(data) > h.Sink.Capacity() {
			return Response{}, failWith(MsgImageTooLarge, errors.New("exceeds framebuffer"))
		}
		h.Sink.WritePixels(data)
		h.Sink.Update()
		displayed = true
	}
	if !displayed {
		return Response{}, failWith(MsgNoValidParams, ErrMissingParams)
	}
	return Success(MsgImageDisplayed), nil
}

func handleTest(ctx context.Context, root *MapReader) (Response, error) {
	params, err := enterParams(root, MsgTestParamsMissing, MsgTestParamsNotMap)
	if err != nil {
		return Response{}, err
	}
	var (
		message string
		found   bool
	)
	c := params.Cursor()
	for {
		key, ok, err := params.Next()
		if err != nil {
			return Response{}, failWith(MsgBadStructure, err)
		}
		if !ok {
			break
		}
		if key != ParamTestMessage {
			if err = params.SkipValue(); err != nil {
				return Response{}, failWith(MsgBadStructure, err)
			}
			continue
		}
		if c.Kind() != KindText {
			return Response{}, failWith(MsgTestNotString, ErrUnexpectedType)
		}
		if message, err = c.Text(MaxTestMessageLen); err != nil {
			return Response{}, failWith(MsgTestReadFailed, err)
		}
		found = true
	}
	if !found {
		return Response{}, failWith(MsgTestMissing, ErrMissingParams)
	}
	return Success(MsgTestProcessed).WithReceived(message), nil
}

// enterParams finds "params" in the request map and enters it.
func enterParams(root *MapReader, missingMsg, notMapMsg string) (*MapReader, error) {
	for {
		key, ok, err := root.Next()
		if err != nil {
			return nil, failWith(MsgBadStructure, err)
		}
		if !ok {
			return nil, failWith(missingMsg, ErrMissingParams)
		}
		if key != FieldParams {
			if err = root.SkipValue(); err != nil {
				return nil, failWith(MsgBadStructure, err)
			}
			continue
		}
		if root.Cursor().Kind() != KindMap {
			return nil, failWith(notMapMsg, ErrUnexpectedType)
		}
		params, err := root.Cursor().EnterMap()
		if err != nil {
			return nil, failWith(MsgBadStructure, err)
		}
		return params, nil
	}
}
