package registry

// VirusSlot is one entry of the fixed team roster.
type VirusSlot struct {
	Name  string
	Color string
}

// VirusRoster is the static team table. Rooms are built from a prefix of this
// list, capped at model.MaxTeams.
var VirusRoster = []VirusSlot{
	{Name: "TROJAN", Color: "#ff0040"},
	{Name: "WORM", Color: "#00ff41"},
	{Name: "RANSOMWARE", Color: "#ff6600"},
	{Name: "SPYWARE", Color: "#00d4ff"},
	{Name: "MALWARE", Color: "#bf00ff"},
	{Name: "BOTNET", Color: "#ffdd00"},
}
