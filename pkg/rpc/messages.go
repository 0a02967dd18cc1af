package rpc

// Messages returned to the host.
const (
	MsgMessageTooLarge   = "Message too large"
	MsgParseFailed       = "Failed to parse CBOR message"
	MsgNotRPCMessage     = "Expected RPC message format"
	MsgBadStructure      = "Failed to parse message structure"
	MsgMethodNotString   = "Method must be a string"
	MsgMethodNotFound    = "Method field not found in RPC message"
	MsgUnknownMethod     = "Unknown method"
	MsgResponseTooLarge  = "Response too large"
	MsgParamsNotFound    = "Params not found in method call"
	MsgParamsNotMap      = "Params must be a map"
	MsgImageNotBytes     = "Image data must be byte string"
	MsgImageInvalid      = "Invalid image data format"
	MsgImageTooLarge     = "Image data too large"
	MsgNoValidParams     = "No valid parameters found (expected image_data)"
	MsgImageDisplayed    = "Image displayed successfully"
	MsgDisplayCleared    = "Display cleared successfully"
	MsgDefaultDisplayed  = "Default image displayed successfully"
	MsgTestParamsMissing = "Params not found in test method call"
	MsgTestParamsNotMap  = "Test params must be a map"
	MsgTestNotString     = "Test message must be a string"
	MsgTestReadFailed    = "Failed to read test message"
	MsgTestMissing       = "No test_message parameter found"
	MsgTestProcessed     = "Test RPC call processed successfully"
)
