package catalog

// Sample returns the built-in demo library used when no real music source is
// bound. Ids are stable so persisted selections survive restarts.
func Sample() *Memory {
	var (
		comeTogether = Song{ID: "s1", Title: "Come Together", Artist: "The Beatles", Album: "Abbey Road", DurationSeconds: 259, Track: 1}
		something    = Song{ID: "s2", Title: "Something", Artist: "The Beatles", Album: "Abbey Road", DurationSeconds: 182, Track: 2}
		hereComesSun = Song{ID: "s3", Title: "Here Comes The Sun", Artist: "The Beatles", Album: "Abbey Road", DurationSeconds: 185, Track: 7}
		letItBe      = Song{ID: "s4", Title: "Let It Be", Artist: "The Beatles", Album: "Let It Be", DurationSeconds: 243, Track: 6}
		acrossUniv   = Song{ID: "s5", Title: "Across The Universe", Artist: "The Beatles", Album: "Let It Be", DurationSeconds: 228, Track: 3}
		getBack      = Song{ID: "s6", Title: "Get Back", Artist: "The Beatles", Album: "Let It Be", DurationSeconds: 191, Track: 12}

		shineOn    = Song{ID: "s7", Title: "Shine On You Crazy Diamond", Artist: "Pink Floyd", Album: "Wish You Were Here", DurationSeconds: 810, Track: 1}
		wishHere   = Song{ID: "s8", Title: "Wish You Were Here", Artist: "Pink Floyd", Album: "Wish You Were Here", DurationSeconds: 334, Track: 4}
		numb       = Song{ID: "s9", Title: "Comfortably Numb", Artist: "Pink Floyd", Album: "The Wall", DurationSeconds: 382, Track: 6}
		brick      = Song{ID: "s10", Title: "Another Brick In The Wall", Artist: "Pink Floyd", Album: "The Wall", DurationSeconds: 239, Track: 5}
		heyYou     = Song{ID: "s11", Title: "Hey You", Artist: "Pink Floyd", Album: "The Wall", DurationSeconds: 280, Track: 1}
		runLikeHel = Song{ID: "s12", Title: "Run Like Hell", Artist: "Pink Floyd", Album: "The Wall", DurationSeconds: 254, Track: 10}

		stairway   = Song{ID: "s13", Title: "Stairway To Heaven", Artist: "Led Zeppelin", Album: "Led Zeppelin IV", DurationSeconds: 482, Track: 4}
		blackDog   = Song{ID: "s14", Title: "Black Dog", Artist: "Led Zeppelin", Album: "Led Zeppelin IV", DurationSeconds: 296, Track: 1}
		rockNRoll  = Song{ID: "s15", Title: "Rock And Roll", Artist: "Led Zeppelin", Album: "Led Zeppelin IV", DurationSeconds: 220, Track: 2}
		kashmir    = Song{ID: "s16", Title: "Kashmir", Artist: "Led Zeppelin", Album: "Physical Graffiti", DurationSeconds: 517, Track: 3}
		tenYears   = Song{ID: "s17", Title: "Ten Years Gone", Artist: "Led Zeppelin", Album: "Physical Graffiti", DurationSeconds: 392, Track: 4}
		inTheLight = Song{ID: "s18", Title: "In The Light", Artist: "Led Zeppelin", Album: "Physical Graffiti", DurationSeconds: 526, Track: 1}

		bohemian  = Song{ID: "s19", Title: "Bohemian Rhapsody", Artist: "Queen", Album: "A Night at the Opera", DurationSeconds: 355, Track: 11}
		bestFri   = Song{ID: "s20", Title: "You're My Best Friend", Artist: "Queen", Album: "A Night at the Opera", DurationSeconds: 170, Track: 4}
		loveLife  = Song{ID: "s21", Title: "Love of My Life", Artist: "Queen", Album: "A Night at the Opera", DurationSeconds: 219, Track: 9}
		rockYou   = Song{ID: "s22", Title: "We Will Rock You", Artist: "Queen", Album: "News of the World", DurationSeconds: 122, Track: 1}
		champions = Song{ID: "s23", Title: "We Are The Champions", Artist: "Queen", Album: "News of the World", DurationSeconds: 179, Track: 2}
	)

	artists := []Artist{
		{ID: "ar-1", Name: "The Beatles", Albums: []Album{
			{ID: "al-1", Name: "Abbey Road", Artist: "The Beatles", Year: 1969, Songs: []Song{comeTogether, something, hereComesSun}},
			{ID: "al-2", Name: "Let It Be", Artist: "The Beatles", Year: 1970, Songs: []Song{letItBe, acrossUniv, getBack}},
		}},
		{ID: "ar-2", Name: "Pink Floyd", Albums: []Album{
			{ID: "al-3", Name: "Wish You Were Here", Artist: "Pink Floyd", Year: 1975, Songs: []Song{shineOn, wishHere}},
			{ID: "al-4", Name: "The Wall", Artist: "Pink Floyd", Year: 1979, Songs: []Song{numb, brick, heyYou, runLikeHel}},
		}},
		{ID: "ar-3", Name: "Led Zeppelin", Albums: []Album{
			{ID: "al-5", Name: "Led Zeppelin IV", Artist: "Led Zeppelin", Year: 1971, Songs: []Song{stairway, blackDog, rockNRoll}},
			{ID: "al-6", Name: "Physical Graffiti", Artist: "Led Zeppelin", Year: 1975, Songs: []Song{kashmir, tenYears, inTheLight}},
		}},
		{ID: "ar-4", Name: "Queen", Albums: []Album{
			{ID: "al-7", Name: "A Night at the Opera", Artist: "Queen", Year: 1975, Songs: []Song{bohemian, bestFri, loveLife}},
			{ID: "al-8", Name: "News of the World", Artist: "Queen", Year: 1977, Songs: []Song{rockYou, champions}},
		}},
	}

	playlists := []Playlist{
		{ID: "pl-1", Name: "Classic Rock Favorites", Songs: []Song{comeTogether, numb, stairway, letItBe, bohemian}},
		{ID: "pl-2", Name: "Chill Vibes", Songs: []Song{hereComesSun, wishHere, something, shineOn, tenYears}},
		{ID: "pl-3", Name: "Road Trip Mix", Songs: []Song{blackDog, runLikeHel, getBack, kashmir, brick, rockNRoll}},
		{ID: "pl-4", Name: "70s Anthems", Songs: []Song{bohemian, rockYou, champions, stairway}},
		{ID: "pl-5", Name: "Guitar Heroes", Songs: []Song{stairway, numb, heyYou}},
		{ID: "pl-6", Name: "Power Ballads", Songs: []Song{loveLife, letItBe, tenYears}},
		{ID: "pl-7", Name: "Late Night", Songs: []Song{shineOn, wishHere, acrossUniv, loveLife}},
	}

	return NewMemory(artists, playlists)
}
