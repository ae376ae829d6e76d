package devcore

import "strings"

// usbClassPrinter is the USB base class code for printers.
const usbClassPrinter uint8 = 7

var (
	printerKeywords = []string{"print", "laserjet", "deskjet", "officejet", "inkjet"}
	scannerKeywords = []string{"scan", "scanjet", "imag"}
	comboKeywords   = []string{"combo", "mfp", "all-in-one", "multifunction"}
)

// InferUsbType guesses the functional category of a USB device from its
// product name and the class codes of its interfaces.
//
// Best-effort classification with no claim of correctness: unknown hardware
// defaults to a scanner.
func matchesAny(name string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

func InferUsbType(productName string, classCodes []uint8) Type {
	name := strings.ToLower(productName)

	if matchesAny(name, comboKeywords) {
		return TypeCombo
	}

	printer := matchesAny(name, printerKeywords)
	scanner := matchesAny(name, scannerKeywords)

	switch {
	case printer && scanner:
		return TypeCombo
	case printer:
		return TypePrinter
	case scanner:
		return TypeScanner
	}

	for _, code := range classCodes {
		if code == usbClassPrinter {
			return TypePrinter
		}
	}

	return TypeScanner
}
