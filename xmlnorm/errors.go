package xmlnorm

import "github.com/garrettmk/broccoli/schemas"

// ErrorCode returns Amazon's error code from a parsed <ErrorResponse>
// envelope, or "" if absent.
func ErrorCode(root *Node) string {
	return ValueAt(root, "/Error/Code", "")
}

// ErrorMessage returns Amazon's error message from a parsed
// <ErrorResponse> envelope, or "" if absent.
func ErrorMessage(root *Node) string {
	return ValueAt(root, "/Error/Message", "")
}

// RequestID returns Amazon's request id, searched anywhere in the document
// since its position varies by endpoint.
func RequestID(root *Node) string {
	return ValueAt(root, "//RequestID", "")
}

// AsAmazonError builds a schemas.AmazonError from a parsed ErrorResponse
// envelope. Callers should check ErrorCode != "" before calling this.
func AsAmazonError(root *Node) *schemas.AmazonError {
	return schemas.NewAmazonError(ErrorCode(root), ErrorMessage(root), RequestID(root))
}
