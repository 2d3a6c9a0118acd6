package bot

import "time"

// User-facing copy. The bot answers in the distributor's voice, so these
// strings stay in Spanish.
const (
	MsgMainMenu = "*Distribuidora El Hueso* \U0001F9B4✨\n" +
		"¿Qué necesitás?\n\n" +
		"1️⃣ Sobre nosotros\n" +
		"2️⃣ Listado de productos \U0001F4E6\n" +
		"3️⃣ Promociones \U0001F525\n" +
		"4️⃣ Realizar pedido \U0001F6D2\n\n" +
		"9️⃣ Finalizar"

	MsgAboutUs = "\U0001F9B4 *Distribuidora El Hueso*\n" +
		"Somos una distribuidora enfocada en entregas y atención rápida.\n" +
		"Contanos qué estás buscando y te ayudamos a armar el pedido. \U0001F4E6\U0001F6D2"

	MsgProductsEmpty = "\U0001F4E6 No hay productos disponibles en este momento. Volvé a intentar más tarde."

	MsgProductsError = "❌ No se pudo obtener el listado. Intente más tarde."

	MsgPromotions = "Todavía no tenemos promociones cargadas. Pronto las vas a poder ver acá."

	MsgPaused = "Conversación pausada. Enviá /starthueso para comenzar nuevamente. ⏸️"

	MsgFarewell = "¡Gracias por comunicarte con Distribuidora El Hueso! \U0001F9B4\U0001F44B"

	MsgInvalidOption = "❌ Opción inválida. Elegí una opción del menú (1️⃣, 2️⃣, 3️⃣, 4️⃣ o 9️⃣)."

	MsgInvalidState = "❌ Ocurrió un error de estado. Enviá /starthueso para reiniciar. \U0001F504"

	MsgCatalogCaption = "\U0001F4E6 Acá tenés nuestro catálogo de productos actualizado."
)

// MsgOrderLink wraps the order URL with its validity notice.
func MsgOrderLink(url string) string {
	return "\U0001F6D2 *Hacé tu pedido desde acá:*\n\n" + url +
		"\n\n⏳ El link es válido por 30 minutos."
}

const (
	// SessionTTL is the idle window after which a session is treated as
	// nonexistent, by both the lazy read path and the periodic sweep.
	SessionTTL = time.Hour

	// SweepInterval is how often expired sessions are purged.
	SweepInterval = 5 * time.Minute

	cmdStart    = "/starthueso"
	cmdEnd      = "/endhueso"
	cmdFinalize = "9"
)
