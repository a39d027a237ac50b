package dbgadapter

// HeaderContentLength is the adapter-protocol frame header field name:
// "Content-Length: <N>\r\n\r\n" followed by N bytes of UTF-8 JSON.
const HeaderContentLength = "Content-Length"

// CRLF terminates each header line and the blank line separating the header
// block from the body.
const CRLF = "\r\n"
