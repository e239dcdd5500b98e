package ui

// TeamInfo lists the project team shown by View Team Details.
var TeamInfo = []string{
	"Product Owner: Mukul C. Mahadik (mmahadik@asu.edu)",
	"Backend Developer: Aniket Agrawal (aagraw82@asu.edu)",
	"Backend Developer: Krithish Goli (kgoli1@asu.edu)",
	"Frontend Developer: Sarvesh Kapse (skapse@asu.edu)",
	"Design Architect: Shrinkhala Kayastha (skayast1@asu.edu)",
}
