package application

type AddAccountCommand struct {
	Cookie     string
	Identifier string
	Proxies    []string
	DeviceID   string
}
