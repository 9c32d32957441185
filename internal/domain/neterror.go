package domain

// NetErrorCode is a low-level network failure reported for a request.
// Values follow the Chromium net::ERR_* naming.
type NetErrorCode string

const (
	ErrSocketNotConnected  NetErrorCode = "net::ERR_SOCKET_NOT_CONNECTED"
	ErrConnectionClosed    NetErrorCode = "net::ERR_CONNECTION_CLOSED"
	ErrConnectionReset     NetErrorCode = "net::ERR_CONNECTION_RESET"
	ErrConnectionRefused   NetErrorCode = "net::ERR_CONNECTION_REFUSED"
	ErrConnectionTimedOut  NetErrorCode = "net::ERR_CONNECTION_TIMED_OUT"
	ErrNetworkAccessDenied NetErrorCode = "net::ERR_NETWORK_ACCESS_DENIED"
	ErrBlockedByResponse   NetErrorCode = "net::ERR_BLOCKED_BY_RESPONSE"
	ErrBlockedByClient     NetErrorCode = "net::ERR_BLOCKED_BY_CLIENT"
	ErrAborted             NetErrorCode = "net::ERR_ABORTED"
	ErrFailed              NetErrorCode = "net::ERR_FAILED"
	ErrCertCommonName      NetErrorCode = "net::ERR_CERT_COMMON_NAME_INVALID"
	ErrCertAuthority       NetErrorCode = "net::ERR_CERT_AUTHORITY_INVALID"
	ErrCertDate            NetErrorCode = "net::ERR_CERT_DATE_INVALID"

	// Codes below have no special handling and classify as invalid.
	ErrNameNotResolved    NetErrorCode = "net::ERR_NAME_NOT_RESOLVED"
	ErrTooManyRedirects   NetErrorCode = "net::ERR_TOO_MANY_REDIRECTS"
	ErrTimedOut           NetErrorCode = "net::ERR_TIMED_OUT"
	ErrCertInvalid        NetErrorCode = "net::ERR_CERT_INVALID"
	ErrConnectionAborted  NetErrorCode = "net::ERR_CONNECTION_ABORTED"
	ErrAddressUnreachable NetErrorCode = "net::ERR_ADDRESS_UNREACHABLE"
	ErrUnsafePort         NetErrorCode = "net::ERR_UNSAFE_PORT"
	ErrUnknownURLScheme   NetErrorCode = "net::ERR_UNKNOWN_URL_SCHEME"
)

// ErrorCategory groups network error codes by how they are classified.
type ErrorCategory int

const (
	OtherError ErrorCategory = iota
	ConnectionError
	AccessError
	CertError
)

func (c ErrorCategory) String() string {
	switch c {
	case ConnectionError:
		return "connection"
	case AccessError:
		return "access"
	case CertError:
		return "certificate"
	default:
		return "other"
	}
}

// Category returns the classification bucket of the code.
func (c NetErrorCode) Category() ErrorCategory {
	switch c {
	case ErrSocketNotConnected, ErrConnectionClosed, ErrConnectionReset,
		ErrConnectionRefused, ErrConnectionTimedOut:
		return ConnectionError
	case ErrNetworkAccessDenied, ErrBlockedByResponse, ErrBlockedByClient,
		ErrAborted, ErrFailed:
		return AccessError
	case ErrCertCommonName, ErrCertAuthority, ErrCertDate:
		return CertError
	default:
		return OtherError
	}
}
