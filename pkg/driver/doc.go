// Package driver provides browser driver handles for the keyword layer.
//
// A Driver is an opaque connection to one browser instance. Two
// families exist:
//
//  1. Local drivers: launched through a shared Playwright runtime,
//     one vendor per launch (Chrome, Firefox, IE via the Edge channel,
//     Safari via WebKit, Android via mobile emulation, Edge).
//  2. Grid drivers: sessions on a cloud browser farm, addressed over
//     the wire protocol's REST surface and selected by a provider
//     setting at open time.
//
// Grid drivers additionally implement Remote: their session id is a
// mutable field, and Close/Quit always address whichever id the field
// currently holds. The keyword layer's remote-session detach protocol
// relies on exactly this property to close a secondary session without
// disturbing the handle's own bookkeeping.
//
// Vendor aliases are resolved case-insensitively through ParseVendor;
// unknown aliases surface as UnknownBrowserError.
package driver
