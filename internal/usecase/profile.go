package usecase

// Profile describes the business behind a quote chat: who answers, which
// number to dial and what services can be picked.
type Profile struct {
	BusinessName string
	Phone        string
	ServiceArea  string
	Services     []string
	Copy         Copy
}

// Copy is the fixed text shown at each transition.
type Copy struct {
	Greeting       string `yaml:"greeting"`
	LocationPrompt string `yaml:"location_prompt"`
	ServicePrompt  string `yaml:"service_prompt"`
	ServiceAck     string `yaml:"service_ack"`
	NamePrompt     string `yaml:"name_prompt"`
	PhonePrompt    string `yaml:"phone_prompt"`
	FinalPrompt    string `yaml:"final_prompt"`
	Done           string `yaml:"done"`
	SkipText       string `yaml:"skip_text"`
	CallPrompt     string `yaml:"call_prompt"`

	LocationPlaceholder string `yaml:"location_placeholder"`
	NamePlaceholder     string `yaml:"name_placeholder"`
	PhonePlaceholder    string `yaml:"phone_placeholder"`
	FinalPlaceholder    string `yaml:"final_placeholder"`
	DefaultPlaceholder  string `yaml:"default_placeholder"`
}

const (
	ServiceCarCheck     = "Car Check - Pre Purchase Inspection"
	ServiceOilBrake     = "Oil & Brake Service"
	ServiceLogbook      = "Logbook Service"
	ServiceBattery      = "Battery Change"
	ServiceBreakdown    = "Breakdown Service"
	ServiceGeneralMech  = "General Mechanic"
	DefaultBusinessName = "Border Mobile Mechanic"
	DefaultPhone        = "0468 358 074"
	DefaultServiceArea  = "Gold Coast"
)

func DefaultServices() []string {
	return []string{
		ServiceCarCheck,
		ServiceOilBrake,
		ServiceLogbook,
		ServiceBattery,
		ServiceBreakdown,
		ServiceGeneralMech,
	}
}

func DefaultCopy() Copy {
	return Copy{
		Greeting:       "Hi, Ben here. Let me know a little about your car. Your message comes straight to my phone and I'll send your quote ASAP",
		LocationPrompt: "📍 What's your location/suburb?",
		ServicePrompt:  "Perfect! Now, what service do you need?",
		ServiceAck:     "Great choice! Now I need your contact details.",
		NamePrompt:     "👤 What's your name?",
		PhonePrompt:    "📱 What's your phone number?",
		FinalPrompt:    "Last one: anything else I should know? If you know the Make and Model of your car please include it too (Optional)",
		Done:           "Perfect! I've got your details. I'll get back to you ASAP.",
		SkipText:       "No additional message",
		CallPrompt:     "Or call me directly for immediate assistance!",

		LocationPlaceholder: "e.g. Tweed Heads, Burleigh, Helensvale...",
		NamePlaceholder:     "Enter your full name",
		PhonePlaceholder:    "Enter your phone number",
		FinalPlaceholder:    "e.g. Toyota Camry, strange noise when braking...",
		DefaultPlaceholder:  "Type your message...",
	}
}

func DefaultProfile() Profile {
	return Profile{
		BusinessName: DefaultBusinessName,
		Phone:        DefaultPhone,
		ServiceArea:  DefaultServiceArea,
		Services:     DefaultServices(),
		Copy:         DefaultCopy(),
	}
}

// Merge fills every empty field of c from def.
func (c Copy) Merge(def Copy) Copy {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	return Copy{
		Greeting:            pick(c.Greeting, def.Greeting),
		LocationPrompt:      pick(c.LocationPrompt, def.LocationPrompt),
		ServicePrompt:       pick(c.ServicePrompt, def.ServicePrompt),
		ServiceAck:          pick(c.ServiceAck, def.ServiceAck),
		NamePrompt:          pick(c.NamePrompt, def.NamePrompt),
		PhonePrompt:         pick(c.PhonePrompt, def.PhonePrompt),
		FinalPrompt:         pick(c.FinalPrompt, def.FinalPrompt),
		Done:                pick(c.Done, def.Done),
		SkipText:            pick(c.SkipText, def.SkipText),
		CallPrompt:          pick(c.CallPrompt, def.CallPrompt),
		LocationPlaceholder: pick(c.LocationPlaceholder, def.LocationPlaceholder),
		NamePlaceholder:     pick(c.NamePlaceholder, def.NamePlaceholder),
		PhonePlaceholder:    pick(c.PhonePlaceholder, def.PhonePlaceholder),
		FinalPlaceholder:    pick(c.FinalPlaceholder, def.FinalPlaceholder),
		DefaultPlaceholder:  pick(c.DefaultPlaceholder, def.DefaultPlaceholder),
	}
}

// CallURI is the dialer action for the configured number, used verbatim.
func (p Profile) CallURI() string {
	return "tel:" + p.Phone
}

func (p Profile) hasService(name string) bool {
	for _, s := range p.Services {
		if s == name {
			return true
		}
	}
	return false
}
