package registration

import (
	"fmt"

	"github.com/congo-pay/pos_trust/internal/terminal"
)

// Step is one ordered onboarding instruction.
type Step struct {
	Order  int    `json:"order"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// Onboarding is the data-only payload external client tooling turns into
// device setup material. It never contains the access key.
type Onboarding struct {
	TerminalID string              `json:"terminalId"`
	DeviceType terminal.DeviceType `json:"deviceType"`
	LoginURL   string              `json:"loginUrl"`
	RenewURL   string              `json:"renewUrl"`
	Steps      []Step              `json:"steps"`
}

// BuildOnboarding is a pure function of its inputs.
func BuildOnboarding(deviceType terminal.DeviceType, terminalID, baseURL string) Onboarding {
	var titles [][2]string
	switch deviceType {
	case terminal.DeviceAndroidPOS:
		titles = [][2]string{
			{"Install the POS app", "Install the terminal app from the managed store on the Android POS device."},
			{"Grant permissions", "Allow precise location and phone state so the device can report its GPS fix and IMEI."},
			{"Enter credentials", fmt.Sprintf("Open Settings > Terminal and enter terminal id %s and the access key issued at registration.", terminalID)},
			{"Acquire GPS fix", "Stand at the registered business address and wait until reported accuracy is below the configured limit."},
			{"First login", "Log in once; the terminal is then locked to this device's hardware id."},
		}
	case terminal.DeviceIOSTablet:
		titles = [][2]string{
			{"Install the tablet app", "Install the terminal app through the organisation's MDM profile."},
			{"Enable location", "Set location access to 'While Using' with Precise Location turned on."},
			{"Enter credentials", fmt.Sprintf("Enter terminal id %s and the access key issued at registration.", terminalID)},
			{"First login", "Log in from the registered business address; the tablet's identifier is bound on success."},
		}
	case terminal.DeviceWebKiosk:
		titles = [][2]string{
			{"Open the kiosk URL", fmt.Sprintf("Point the kiosk browser at %s and allow location sharing.", baseURL)},
			{"Pin the browser profile", "Use a dedicated browser profile so the stored hardware id stays stable."},
			{"Enter credentials", fmt.Sprintf("Enter terminal id %s and the access key issued at registration.", terminalID)},
			{"First login", "Log in from the registered business address; the kiosk profile is bound on success."},
		}
	default:
		titles = [][2]string{
			{"Configure the client", fmt.Sprintf("Configure the client to call %s with terminal id %s.", baseURL+loginPath, terminalID)},
			{"Report hardware and location", "Send a stable hardware id plus latitude, longitude and accuracy on every login."},
			{"First login", "Log in from the registered business address; the hardware id is bound on success."},
		}
	}

	steps := make([]Step, len(titles))
	for i, t := range titles {
		steps[i] = Step{Order: i + 1, Title: t[0], Detail: t[1]}
	}

	return Onboarding{
		TerminalID: terminalID,
		DeviceType: deviceType,
		LoginURL:   baseURL + loginPath,
		RenewURL:   baseURL + renewPath,
		Steps:      steps,
	}
}

const (
	loginPath = "/api/v1/auth/login"
	renewPath = "/api/v1/auth/renew"
)
