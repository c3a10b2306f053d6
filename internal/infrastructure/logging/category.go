package logging

type Category string
type SubCategory string
type ExtraKey string

const (
	General         Category = "General"
	IO              Category = "IO"
	Internal        Category = "Internal"
	Lobby           Category = "Lobby"
	Room            Category = "Room"
	Member          Category = "Member"
	WebSocket       Category = "WebSocket"
	Redis           Category = "Redis"
	RabbitMQ        Category = "RabbitMQ"
	Validation      Category = "Validation"
	RequestResponse Category = "RequestResponse"
	Prometheus      Category = "Prometheus"
)

const (
	// General
	Startup         SubCategory = "Startup"
	Shutdown        SubCategory = "Shutdown"
	RateLimiting    SubCategory = "RateLimiting"
	ExternalService SubCategory = "ExternalService"
	Recover         SubCategory = "Recover"

	// Lobby
	Provisioning SubCategory = "Provisioning"
	Notification SubCategory = "Notification"

	// Broker / cache
	Publish  SubCategory = "Publish"
	Consume  SubCategory = "Consume"
	Snapshot SubCategory = "Snapshot"

	// WebSocket
	Connect    SubCategory = "Connect"
	Disconnect SubCategory = "Disconnect"
	Request    SubCategory = "Request"

	// Member store
	Eviction SubCategory = "Eviction"
)

const (
	AppName      ExtraKey = "AppName"
	LoggerName   ExtraKey = "Logger"
	ClientIp     ExtraKey = "ClientIp"
	HostIp       ExtraKey = "HostIp"
	Method       ExtraKey = "Method"
	StatusCode   ExtraKey = "StatusCode"
	BodySize     ExtraKey = "BodySize"
	Path         ExtraKey = "Path"
	Latency      ExtraKey = "Latency"
	RequestID    ExtraKey = "RequestId"
	ErrorMessage ExtraKey = "ErrorMessage"
	LobbyID      ExtraKey = "LobbyId"
	RoomID       ExtraKey = "RoomId"
	MemberID     ExtraKey = "MemberId"
	Event        ExtraKey = "Event"
	RoutingKey   ExtraKey = "RoutingKey"
)
