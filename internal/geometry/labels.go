package geometry

import "github.com/dyuri/buildmap/internal/model"

var dukeEffect = map[int]string{
	1:  "SectorEffector",
	2:  "Activator",
	3:  "Touchplates",
	4:  "ActivatorLocked",
	5:  "MusicSFX",
	6:  "Locator",
	7:  "Cycler",
	8:  "Masterswitch",
	9:  "Respawn",
	10: "GPSPEED",
}

var dukeWeapon = map[int]string{
	21: "Pistol",
	22: "Chaingun",
	23: "RPG",
	24: "FreezeThrower",
	25: "Shrinker",
	26: "PipeBomb",
	27: "LaserTripbomb",
	28: "Shotgun",
	29: "Devastator",
	32: "Expander",
}

var dukeAmmo = map[int]string{
	37: "FreezethrowerAmmo",
	38: "FreezethrowerAmmo Anim1",
	39: "FreezethrowerAmmo Anim2",
	40: "PistolAmmo",
	41: "ChaingunAmmo",
	42: "DevastatorAmmo",
	44: "RPGAmmo",
	45: "ExpanderAmmo",
	46: "ShrinkRayAmmo",
	47: "PipeBombBox",
	49: "ShotgunAmmo",
}

var dukeItem = map[int]string{
	51:   "SmallMedkit",
	52:   "LargeMedkit",
	53:   "PortableMedkit",
	54:   "Armor",
	55:   "Steroids",
	56:   "ScubaGear",
	57:   "Jetpack",
	59:   "NightVisionGoggles",
	60:   "AccessCard",
	61:   "ProtectiveBoots",
	100:  "AtomicHealth",
	1348: "Holoduke",
}

var bloodEffect = map[int]string{
	2072: "Earthquake",
	2077: "Respawn",
	2331: "Up",
	2332: "Down",
	2519: "Sound",
	2520: "SSound",
	2521: "ASound",
}

var bloodItem = map[int]string{
	517:  "HealthRedPotion",
	519:  "HealthDoctorsBag",
	760:  "CrystalBall",
	768:  "CloakOfShadow",
	769:  "CloakOfShadow Anim1",
	770:  "CloakOfShadow Anim2",
	771:  "CloakOfShadow Anim3",
	783:  "FeatherFall",
	822:  "HealthMedicinePouch",
	825:  "DeathMask",
	827:  "JumpBoots",
	829:  "GunsAkimbo",
	830:  "DivingSuit",
	831:  "GasMask",
	837:  "ArmorAsbest",
	839:  "BeastVision",
	840:  "Mushroom1",
	841:  "Mushroom2",
	842:  "Mushroom3",
	843:  "Mushroom4",
	896:  "CloakOfInvisibility",
	897:  "CloakOfInvisibility Anim1",
	898:  "CloakOfInvisibility Anim2",
	899:  "CloakOfInvisibility Anim3",
	900:  "CloakOfInvisibility Anim4",
	901:  "CloakOfInvisibility Anim5",
	902:  "CloakOfInvisibility Anim6",
	903:  "CloakOfInvisibility Anim7",
	2169: "HealthLifeEssence",
	2170: "HealthLifeEssence Anim1",
	2171: "HealthLifeEssence Anim2",
	2172: "HealthLifeEssence Anim3",
	2428: "ReflectiveShots",
	2429: "ReflectiveShots Anim1",
	2430: "ReflectiveShots Anim2",
	2431: "ReflectiveShots Anim3",
	2432: "ReflectiveShots Anim4",
	2433: "HealthLifeSeed",
	2434: "HealthLifeSeed Anim1",
	2435: "HealthLifeSeed Anim2",
	2436: "HealthLifeSeed Anim3",
	2437: "HealthLifeSeed Anim4",
	2552: "KeySkull",
	2553: "KeyEye",
	2554: "KeyFire",
	2555: "KeyDagger",
	2556: "KeySpider",
	2557: "KeyMoon",
	2558: "Key7",
	2578: "ArmorFire",
	2586: "ArmorBody",
	2594: "ArmorSuper",
	2602: "ArmorSpirit",
	2628: "ArmorBasic",
}

var bloodWeapon = map[int]string{
	524: "FlarePistol",
	525: "VoodooDoll",
	526: "NapalmLauncher",
	527: "RandomWeapon",
	539: "TeslaCannon",
	558: "TommyGun",
	559: "SawedOffShotgun",
	589: "TNT",
	618: "AerosolCan",
	800: "LifeLeech",
}

var bloodAmmo = map[int]string{
	548: "TeslaCharge",
	619: "ShotgunShells",
	801: "GasolineCan",
	809: "TNTCrate",
	810: "RemoteDetonator",
	811: "ProximityDetonator",
	812: "ShotgunShellCrate",
	813: "TommyGunBullets",
	814: "BulletCrate",
	815: "AmmoCrate",
	816: "FlaresGreen",
	817: "TommygunDrum",
	818: "FlaresRed",
	819: "FlaresYellow",
	820: "TrappedSoul",
}

// Tiles whose sprites always render at a fixed size in Duke Nukem 3D.
var (
	gunAmmoTiles   = tileSet(21, 22, 23, 24, 25, 26, 27, 28, 29, 32, 37, 40, 41, 42, 44, 45, 46, 47, 49)
	equipmentTiles = tileSet(51, 52, 53, 54, 55, 56, 57, 59, 60, 61, 100)
)

func tileSet(tiles ...int) map[int]bool {
	m := make(map[int]bool, len(tiles))
	for _, t := range tiles {
		m[t] = true
	}
	return m
}

// Label returns a descriptive name for well known sprite tiles, or "".
func Label(v model.Variant, tile int) string {
	tables := []map[int]string{dukeEffect, dukeWeapon, dukeAmmo, dukeItem}
	if v == model.VariantBlood {
		tables = []map[int]string{bloodEffect, bloodWeapon, bloodAmmo, bloodItem}
	}
	for _, t := range tables {
		if s, ok := t[tile]; ok {
			return s
		}
	}
	return ""
}

// IsEffect reports whether the tile is an editor-only effector sprite.
func IsEffect(v model.Variant, tile int) bool {
	if v == model.VariantBlood {
		_, ok := bloodEffect[tile]
		return ok
	}
	_, ok := dukeEffect[tile]
	return ok
}

// inGameScale returns the fixed scale of pickups that ignore their repeat
// values in game. The table is applied to every map variant.
func inGameScale(tile int) (float64, bool) {
	if !(gunAmmoTiles[tile] || equipmentTiles[tile]) {
		return 0, false
	}
	switch tile {
	case 26:
		return 0.125, true
	case 40:
		return 0.25, true
	}
	return 0.5, true
}
