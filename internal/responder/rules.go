package responder

import (
	"fmt"
	"regexp"
)

type action int

const (
	actReply action = iota
	actTime
	actAskRiddle
	actNextRiddle
	actReveal
	actGuess
	actWrongGuess
	actDontKnow
)

type rule struct {
	re     *regexp.Regexp
	reply  string
	act    action
	riddle int
}

type group struct {
	name  string
	rules []rule
}

func phrases(alts string) *regexp.Regexp {
	return regexp.MustCompile(`\b(` + alts + `)\b`)
}

func say(alts, reply string) rule {
	return rule{re: phrases(alts), reply: reply}
}

const (
	replyFallback    = "I apologize, that specific term or calculation is outside my current knowledge base. I focus on defined facts, math and conversational topics."
	replyEmpty       = "I didn't catch that, please repeat."
	replyGreeting    = "Hello there! My knowledge base is ready. What topic would you like to discuss today?"
	replyTimePrefix  = "The current time is "
	replyWhichRiddle = "Which riddle are you stuck on? Say 'I don't know the answer to Riddle [Number]' and I'll reveal it."
	replyCorrect     = "You are absolutely correct! That is the answer! Ask for the 'next riddle' (or state the number) to continue."
	replyWrong       = "Sorry, that is incorrect. Try again, or say 'I don't know' to get the answer."
	replyNoMore      = "That was the last riddle of the current set! Ask for a 'joke' instead."
)

type riddle struct {
	question string
	answer   string
	// extra phrases that ask for this riddle, besides "riddle N" and its ordinal
	asks string
	// accepted guesses
	guesses string
}

var riddles = []riddle{
	{"What gets bigger the more you take away from it?", "A hole", "riddle me this|i need a riddle|ask me a riddle|give me a brain teaser|a riddle", "a hole|hole|an opening"},
	{"I can be broken even if no one touches me. What am I?", "A promise", "", "a promise|promise"},
	{"What belongs to you but is used more by others?", "Your name", "", "your name|name"},
	{"I'm always in front of you, but you can never see me. What am I?", "The future", "always in front", "the future|future"},
	{"The more you have me, the less you see. What am I?", "Darkness", "more you have less you see", "darkness"},
	{"What has words, but never speaks?", "A book", "words but never speaks", "a book|book"},
	{"You can hold me without using your hands. What am I?", "Your breath", "hold without hands", "your breath|breath"},
	{"Everyone has me, but no one can lose me. What am I?", "Your shadow", "everyone has but no one can lose", "your shadow|shadow"},
	{"I go up but never come down. What am I?", "Your age", "goes up but never comes down", "your age|age"},
	{"What breaks when you say its name?", "Silence", "breaks when you say its name", "silence"},
}

var ordinals = []string{"first", "second", "third", "fourth", "fifth", "sixth", "seventh", "eighth", "ninth", "tenth"}

func riddleQuestion(n int) string {
	return fmt.Sprintf("%s (This is Riddle %d. Say 'I don't know' for the answer, or ask for the next riddle.)", riddles[n-1].question, n)
}

func riddleReveal(n int) string {
	if n == len(riddles) {
		return fmt.Sprintf("The answer to Riddle %d is: %s. %s", n, riddles[n-1].answer, replyNoMore)
	}
	return fmt.Sprintf("The answer to Riddle %d is: %s. Ready for the next one? Ask for 'Riddle %d'.", n, riddles[n-1].answer, n+1)
}

// riddleGroup orders reveals before questions so "I don't know the answer to
// riddle 3" is never mistaken for a request for riddle 3.
func riddleGroup() group {
	var rules []rule
	for i := range riddles {
		n := i + 1
		alts := fmt.Sprintf("i don't know the answer to riddle %d|i dont know the answer to riddle %d|what is the answer to riddle %d|reveal riddle %d|i dont know %d", n, n, n, n, n)
		rules = append(rules, rule{re: phrases(alts), reply: riddleReveal(n), act: actReveal, riddle: n})
	}
	rules = append(rules, rule{
		re:    phrases(`i don't know|i dont know|give me the answer|what is the answer|reveal the answer`),
		reply: replyWhichRiddle,
		act:   actDontKnow,
	})
	rules = append(rules, rule{re: phrases(`next riddle|another riddle`), reply: riddleQuestion(2), act: actNextRiddle, riddle: 2})
	for i, r := range riddles {
		n := i + 1
		alts := fmt.Sprintf("%s riddle|riddle %d", ordinals[i], n)
		if r.asks != "" {
			alts += "|" + r.asks
		}
		rules = append(rules, rule{re: phrases(alts), reply: riddleQuestion(n), act: actAskRiddle, riddle: n})
	}
	for i, r := range riddles {
		rules = append(rules, rule{re: phrases(r.guesses), reply: replyCorrect, act: actGuess, riddle: i + 1})
	}
	rules = append(rules, rule{re: phrases(`the answer is|my guess is|i think it is|is it|is that`), reply: replyWrong, act: actWrongGuess})
	return group{name: "riddles", rules: rules}
}

// groups is scanned in order; the first matching rule wins.
var groups = []group{
	{"greetings", []rule{
		say(`hi|hello|hey|greetings|good day|wazzup|yo|salutations|howdy|what's up|good evening|talk to me`, replyGreeting),
		say(`how are you|how r you|you doing|your status|u doin|status report|how goes it|are you functioning|what is your status`,
			"I am a chat bot processing data efficiently. Everything is green!"),
		say(`who are you|what is your name|bot name|are you bot|tell me about you|your identity|who is ha chat|explain yourself|your purpose`,
			"I am HA Chat, a helpful rule-based chat bot. I know facts about science, math, grammar and social studies."),
	}},
	{"boredom", []rule{
		say(`i am bored|im bored|feeling bored|nothing to do|i need fun|entertain me|what can we talk about|distract me|kill time`,
			"Feeling bored? Let's dive into a trivia rabbit hole! Ask me about the 'Third Conditional' or 'Ionic Bonds'."),
		say(`what should i do|chat for fun|can you talk|chat with me|i need a distraction|suggest something fun|how can i use you`,
			"If you need a fun distraction, ask me for a 'riddle', a 'fun fact', or 'a speech about technology'."),
	}},
	{"gratitude", []rule{
		say(`thank you|thanks|thx|cheers|much appreciated|i appreciate it|you're great|thank you bot|good job|that was helpful`,
			"You are most welcome! Helping you is my primary function. Let me know if you have another query."),
	}},
	{"frustration", []rule{
		say(`i don't understand|i don't get that|you can't answer that|error in knowledge|something you don't know|you failed`, replyFallback),
	}},
	{"common sense", []rule{
		say(`what can you do|what are your capabilities|what are you good at|what is your function|can you do for me|what's your job|how can you help|explain your services`,
			"I can do arithmetic, recall facts about science, social studies and grammar, or write a short speech. Try asking for 'Newton's Third Law' or the '42nd Amendment'."),
		say(`how was your day|how do you feel|are you fine|are you okay|what's up with you`,
			"I don't experience days or emotions, but my systems are operating perfectly and I'm ready for your questions."),
		{re: phrases(`what time is it|current time|give me the time|what is the time now`), reply: "I can tell the time once we are chatting.", act: actTime},
		say(`can you help me|i need help|i have a question|can i ask something|i have a query`,
			"Of course! Ask me a specific question about science, grammar or history, or give me a calculation."),
		say(`solve for x|find x|equals x|solve for y|solve for z`,
			"To evaluate an equation I need the value of every variable. I cannot solve for an unknown, but I can compute an expression made of numbers."),
	}},
	{"speeches", []rule{
		say(`speech about motivation|motivational speech|write a speech on motivation|inspiration speech|need motivation|i need a spark|keynote motivation|give me an inspiring speech`,
			"Friends! In the face of challenge, remember this: motivation is the spark, but consistency is the fuel. Every great journey begins with a single step. That moment is now. Let's go build something amazing!"),
		say(`speech about technology|technology speech|write a speech on tech|future of tech speech|ai speech|digital age speech|impact of technology|speech on automation`,
			"Esteemed guests, we stand at the start of a new digital age. Technology amplifies human creativity. Our greatest responsibility is to make sure this progress is ethical and inclusive, and that it lifts every corner of humanity."),
		say(`speech about environment|environment speech|write a speech on nature|planet health speech|conservation speech|ecological speech|green speech`,
			"The health of our planet is non-negotiable. The air we breathe and the water we drink are precious trusts, not limitless resources. Choose sustainability and protect the Earth."),
		say(`speech about leadership|leadership speech|write a speech on leadership|true leader speech|how to be a leader|management speech|principles of leadership`,
			"True leadership is not about power; it is about influence, empathy and service. A great leader listens more than they speak and commits to the growth of their team above their own."),
		say(`speech about innovation|innovation speech|write a speech on innovation|future thinking speech|value of creativity|status quo speech`,
			"Innovation is the engine of human progress. It takes curiosity, failure and the courage to challenge the status quo. On the other side of the unknown lies the solution that will redefine tomorrow."),
	}},
	{"math help", []rule{
		say(`solve a math|calculate for me|can you do math|math equation|square root|exponent|pow|plus minus times divide|do calculations|calculate|sin|cos|log`,
			"I can do arithmetic, exponents and square roots. Try '12 * (3 + 4)', '2 to the power of 8' or 'sqrt 81'."),
	}},
	{"computer science", []rule{
		say(`what is linked list|explain linked list|linear data structure|linked nodes|linked list structure`,
			"A linked list is a linear data structure whose elements are not stored contiguously but are linked using pointers."),
		say(`what is stack|explain stack|lifo principle|last in first out|stack of plates|stack definition`,
			"A stack is a linear data structure that follows the Last In, First Out (LIFO) principle. Think of a stack of plates."),
		say(`what is https|explain https|secure http|ssl tls encryption|secure data transfer`,
			"HTTPS is HTTP over TLS: it encrypts the communication between client and server for secure data transfer."),
		say(`what is compiler|explain compiler|source code to machine code|compiler definition`,
			"A compiler translates human-readable source code into machine code that the CPU can execute directly."),
		say(`what is oop|explain oop|object oriented programming|inheritance encapsulation polymorphism|oop principles`,
			"Object-Oriented Programming is a paradigm built on objects that hold data and methods. Its key principles are encapsulation, inheritance and polymorphism."),
		say(`what is big o notation|explain big o|algorithm complexity|limiting behavior`,
			"Big O notation classifies algorithms by how their running time or memory grows as the input size grows."),
		say(`what is a rest api|explain restful api|http methods api|application program interface`,
			"A RESTful API is an architectural style that uses standard HTTP methods (GET, POST, PUT, DELETE) to let systems communicate."),
	}},
	{"physics and chemistry", []rule{
		say(`schrodinger's equation|explain schrodinger's equation|quantum mechanics equation|quantum state change`,
			"Schrodinger's equation describes how the quantum state of a physical system changes over time: H psi = E psi."),
		say(`what is ideal gas law|explain ideal gas law|pv equals nrt|equation of state`,
			"The ideal gas law is the equation of state of a hypothetical ideal gas: PV = nRT."),
		say(`what is photosynthesis|explain photosynthesis|light energy to chemical energy|photosynthesis formula`,
			"Photosynthesis converts light energy into chemical energy: 6CO2 + 6H2O + light -> C6H12O6 + 6O2."),
		say(`what is the periodic table|explain periodic table|tabular arrangement of elements|atomic number order`,
			"The periodic table arranges the chemical elements in order of atomic number."),
		say(`first law of thermodynamics|conservation of energy|delta u equals q minus w`,
			"The first law of thermodynamics: energy cannot be created or destroyed in an isolated system, only transformed. Delta U = Q - W."),
		say(`doppler effect|change in frequency|ambulance siren effect|explain doppler`,
			"The Doppler effect is the change in frequency of a wave for an observer moving relative to its source, which is why a passing siren changes pitch."),
	}},
	{"health", []rule{
		say(`what is immune system|explain immune system|defend body invaders|cells tissues organs defense`,
			"The immune system is a network of cells, tissues and organs that defends the body against foreign invaders."),
		say(`what is respiratory system|explain respiratory system|organs that help you breathe|gas exchange function`,
			"The respiratory system is the network of organs that help you breathe. Its main function is gas exchange."),
		say(`what is dna replication|explain dna replication|producing dna replicas|cell division process`,
			"DNA replication produces two identical copies of DNA from one original molecule. It is crucial for cell division."),
		say(`what is the krebs cycle|citric acid cycle|metabolic pathway|produce atp`,
			"The Krebs cycle is the central metabolic pathway that oxidises acetyl-CoA to produce energy as ATP, NADH and FADH2."),
		say(`what is homeostasis|explain homeostasis|steady internal conditions|stable equilibrium`,
			"Homeostasis is the steady internal physical and chemical state maintained by living systems."),
	}},
	{"history", []rule{
		say(`when did world war 1 start|ww1 start date|1914 to 1918|start of the great war`,
			"World War I began in 1914 with the assassination of Archduke Franz Ferdinand and ended in 1918."),
		say(`great pyramid of giza|who built giza pyramid|pharaoh khufu pyramid`,
			"The Great Pyramid of Giza was built for the Pharaoh Khufu and is the oldest and largest of the three pyramids at Giza."),
		say(`fall of roman empire|when did roman empire fall|romulus augustulus`,
			"The Western Roman Empire fell in 476 AD when Romulus Augustulus was deposed by Odoacer."),
		say(`when was magna carta signed|what is magna carta|king subject to law`,
			"The Magna Carta was sealed in 1215 in England, establishing that everyone, including the king, is subject to the law."),
		say(`invention of printing press|johannes gutenberg|when was printing press invented`,
			"Johannes Gutenberg invented the movable type printing press around 1440 in Germany."),
		say(`when did cold war start|cold war start date|tension between us and soviet union`,
			"The Cold War began around 1947, shortly after World War II, between the Soviet Union and the United States."),
	}},
	{"common knowledge", []rule{
		say(`why is sleep important|need sleep|sleep benefits`,
			"Sleep lets your body repair cells, consolidate memory and release hormones essential for growth and appetite."),
		say(`who invented the telephone|invented phone|alexander graham bell`,
			"The telephone was invented by Alexander Graham Bell in 1876."),
		say(`who invented the wheel|invention of wheel|when was wheel invented`,
			"The wheel was invented in ancient Mesopotamia around 3500 BCE, first for pottery and later for transport."),
		say(`what is the sun|sun type|solar system star`,
			"The Sun is an average-sized G-type main-sequence star at the center of our solar system."),
		say(`why are there seasons|earth seasons|tilted axis`,
			"The Earth has seasons because its axis is tilted relative to its orbit, so each hemisphere receives varying sunlight through the year."),
		say(`how does a compass work|magnetic compass|points north`,
			"A compass aligns a magnetised needle with the Earth's magnetic field to point toward magnetic north."),
		say(`water formula|h2o formula|what is h2o`,
			"The chemical formula for water is H2O: two hydrogen atoms and one oxygen atom."),
		say(`what is gravity|gravity definition|why objects fall`,
			"Gravity is the force of attraction between any two masses. On Earth it pulls objects toward the center."),
		say(`how do plants make food|plants make food|basic photosynthesis`,
			"Plants use photosynthesis to turn sunlight, water and carbon dioxide into glucose and oxygen."),
		say(`capital of india|new delhi capital`, "The capital city of India is New Delhi."),
		say(`capital of egypt`, "The capital city of Egypt is Cairo, on the Nile River."),
	}},
	{"jokes", []rule{
		say(`another joke|more jokes|second joke|friend dreams joke`, "I told my friend to follow his dreams... So he went back to sleep."),
		say(`third joke|last joke|battery relationship joke`, "My phone battery lasts longer than most relationships these days."),
		say(`bed alarm joke|relationship joke`, "My bed and I are perfect for each other... But my alarm clock keeps trying to separate us."),
		say(`tree shade joke|exam shade joke`, "Teacher: 'What is the most important thing we get from trees?' Student: 'Shade during exams.'"),
		say(`wifi joke|left me on read joke`, "I asked my WiFi to be stronger. It left me on 'read'."),
		say(`doctor video game joke`, "Doctor: 'You need to stop playing video games.' Me: 'Why?' Doctor: 'Because I'm trying to talk to you.'"),
		say(`pillow hairstyle joke`, "I don't need a hairstylist... My pillow gives me a new hairstyle every morning."),
		say(`late to school joke|school ahead go slow joke`, "Teacher: 'Why are you late?' Kid: 'There was a sign on the road.' Teacher: 'What sign?' Kid: 'School ahead. Go slow.'"),
		say(`messy room surprise joke|messy surprise joke`, "Mom: 'Why is your room messy?' Me: 'I wanted to surprise you.' Mom: 'How is this a surprise?' Me: 'You weren't expecting it to be THIS messy!'"),
		say(`earn millions book joke|shopkeeper joke`, "I went to buy a book on 'How to Earn Millions'. The shopkeeper said: 'If I knew that, do you think I'd be selling books?'"),
		say(`internet family joke|internet down joke`, "My internet went down for 5 minutes... So I finally talked to my family. They're nice people."),
		say(`fridge running joke|cold behavior joke`, "I asked my fridge why it was running... It ignored me. Typical cold behavior."),
		say(`alarm clock hate joke|alarm clock screams joke`, "My alarm clock must hate me. Every morning it screams until I wake up."),
		say(`joke|make me laugh|tell something funny`, "I'm not lazy... I'm just on energy-saving mode."),
	}},
	{"fun facts", []rule{
		say(`fun fact|tell me a fun fact|random fact|something interesting|coffee fruit|is coffee a fruit`,
			"Coffee is actually a fruit! Coffee beans are the seeds of berries from the Coffea plant."),
		say(`hottest planet|which planet is hottest|venus fact|planet fact`,
			"The hottest planet is not Mercury but Venus, because its dense atmosphere traps heat."),
		say(`english word with most definitions|word set definition`,
			"The English word with the most definitions is 'set', with over 430 meanings."),
	}},
	riddleGroup(),
	{"foundational science", []rule{
		say(`difference between respiration and breathing|respiration vs breathing|breathing vs respiration`,
			"Breathing moves air in and out of the lungs. Respiration is the chemical process in cells that releases energy from glucose."),
		say(`why is photosynthesis important|importance of photosynthesis|produces food and oxygen`,
			"Photosynthesis is the main source of oxygen and the base of the food chain for almost all life on Earth."),
		say(`function of mitochondria|what do mitochondria do|powerhouse of the cell`,
			"Mitochondria are the powerhouses of the cell, generating most of its supply of ATP."),
		say(`difference between arteries and veins|arteries vs veins|carry blood away or toward heart`,
			"Arteries carry oxygenated blood away from the heart; veins carry deoxygenated blood back to it (the pulmonary vessels are the exception)."),
		say(`why do plants need sunlight|sunlight for plants|plants make food`,
			"Plants need sunlight for photosynthesis, which turns light energy into the chemical energy they live on."),
		say(`what is inertia|inertia definition|objects stay at rest`,
			"Inertia is the property of a body to resist a change in its state of rest or motion."),
		say(`why do objects fall to the ground|objects fall gravity|gravity pulls everything`,
			"Objects fall because gravity, the attraction between all masses, pulls them toward the Earth's center."),
		say(`difference between speed and velocity|speed vs velocity|speed with direction`,
			"Speed is a scalar (how fast). Velocity is a vector (how fast in a given direction)."),
		say(`why do we feel weightless in space|astronauts feel weightless|free fall around earth`,
			"Astronauts feel weightless because they are in constant free fall around the Earth, not because there is no gravity."),
		say(`what is refraction|refraction of light|bending of light medium`,
			"Refraction is the bending of light as it passes from one transparent medium into another, because its speed changes."),
		say(`what is matter|matter definition|has mass and occupies space`, "Matter is anything that has mass and occupies space."),
		say(`what is an atom|atom smallest unit|retains chemical properties`, "An atom is the smallest unit of an element that keeps its chemical properties."),
		say(`why do metals conduct electricity|metals conduct electricity|free electrons in metals`,
			"Metals conduct electricity because their free electrons move easily and carry electric charge."),
		say(`what is the ph scale|ph scale definition|measures acidity basicity`,
			"The pH scale measures how acidic or basic a substance is, from 0 (acidic) to 14 (basic), with 7 neutral."),
		say(`why do we see bubbles during boiling|bubbles during boiling|water turns to steam`,
			"The bubbles in boiling water are steam: liquid water turning into gas."),
	}},
	{"geography", []rule{
		say(`difference between weather and climate|weather vs climate|day-to-day conditions average weather`,
			"Weather is the day-to-day state of the atmosphere. Climate is the average weather pattern over many years."),
		say(`why is earth called the blue planet|earth blue planet|71 percent water`, "Earth is called the Blue Planet because about 71% of its surface is covered by water."),
		say(`what causes seasons|seasons happen because|earth tilted on axis revolves around sun`,
			"Seasons are caused by the 23.5 degree tilt of the Earth's axis as it revolves around the Sun."),
		say(`what are the major heat zones of the earth|heat zones of the earth|torrid temperate frigid zone`,
			"The heat zones are the Torrid Zone near the equator (hottest), the Temperate Zones (moderate) and the Frigid Zones near the poles (coldest)."),
		say(`why do winds blow|winds blow|air pressure differences high to low pressure`,
			"Winds blow because of differences in air pressure: air moves from high pressure to low pressure."),
		say(`what is soil erosion|soil erosion definition|removal of soil by wind water`,
			"Soil erosion is the removal of topsoil by wind or water, which reduces the land's fertility."),
		say(`how can we conserve water|conserve water methods|rainwater harvesting afforestation`,
			"We can conserve water with rainwater harvesting, less waste and efficient irrigation such as drip irrigation."),
		say(`what is the water cycle|water cycle steps|evaporation condensation precipitation collection`,
			"The water cycle is evaporation, condensation, precipitation and collection, moving water between the atmosphere and the surface."),
		say(`difference between renewable and non-renewable resources|renewable vs non-renewable resources|sun wind coal petroleum`,
			"Renewable resources such as sun and wind replenish naturally. Non-renewable ones such as coal and petroleum are finite and cannot be quickly replaced."),
		say(`why are forests important|importance of forests|provide oxygen prevent soil erosion maintain climate`,
			"Forests provide oxygen, prevent soil erosion, absorb carbon dioxide, regulate the climate and shelter wildlife."),
	}},
	{"civics", []rule{
		say(`what is democracy|democracy definition|people choose government`,
			"Democracy is a system of government where the people elect representatives to govern on their behalf."),
		say(`what are fundamental rights|basic rights guaranteed to all citizens|right to equality freedom`,
			"Fundamental rights are the basic rights the Constitution guarantees to every citizen, such as the rights to equality, freedom and religion."),
		say(`difference between government and governance|government vs governance|people institutions rule how well they run`,
			"Government is the people and institutions that rule. Governance is how they rule: the process, the policies and how well administration works."),
		say(`what is the role of parliament|parliament role|make laws control government represent people`,
			"Parliament makes laws, controls the government's budget and holds the government accountable to the people."),
		say(`why do we need constitution|need constitution|define rights duties rules powers`,
			"A constitution defines the rules, principles, rights and powers that govern the state and its people."),
		say(`what is secularism|secularism definition|government does not promote or discriminate any religion`,
			"Secularism means the state neither promotes nor discriminates against any religion and treats all faiths equally."),
		say(`what is federalism|federalism definition|power divided between central and state governments`,
			"Federalism divides power between a central government and regional state governments."),
		say(`what is the rule of law|rule of law definition|everyone is equal before the law`,
			"The rule of law means everyone is equal before the law and must follow it."),
		say(`what are elections|elections definition|people vote to choose representatives`,
			"Elections are how citizens vote to choose their representatives and hold them accountable."),
		say(`what is local self-government|local self government|panchayats municipalities`,
			"Local self-government is the rural (Panchayats) and urban (Municipalities) bodies that run local affairs closest to the people."),
	}},
	{"modern history", []rule{
		say(`what is civilization|civilization definition|developed society cities writing culture`,
			"A civilization is an advanced society with permanent settlements, agriculture, cities, government and often writing."),
		say(`why is the indus valley civilization important|indus valley civilization importance|first urban planned cities drainage standardized bricks`,
			"The Indus Valley Civilization was one of the first large urban civilizations, known for planned cities, drainage systems and standardized bricks."),
		say(`why did the british come to india|british came to india|came for trade took control`,
			"The British came to India in the 17th century to trade spices and textiles, then used political and military power to take control."),
		say(`what was the main cause of the revolt of 1857|cause of revolt of 1857|political social economic military grievances cartridge issue`,
			"The revolt of 1857 grew from political, social and economic grievances against British rule; the immediate trigger was the greased cartridge controversy."),
		say(`who led the indian freedom struggle|indian freedom struggle leaders|gandhi nehru subhas bose bhagat singh patel`,
			"Leaders of the Indian freedom struggle include Mahatma Gandhi, Jawaharlal Nehru, Sardar Vallabhbhai Patel, Subhas Chandra Bose and Bhagat Singh."),
	}},
	{"math fundamentals", []rule{
		say(`what is lcm and hcf|lcm vs hcf|least common multiple highest common factor`,
			"The LCM is the smallest number divisible by both numbers; the HCF is the largest number that divides both."),
		say(`formula for percentage|calculate percentage|value over total times 100`, "Percentage = value / total value x 100."),
		say(`what is simple interest|simple interest formula|si equals prt over 100`, "Simple interest = (principal x rate x time) / 100."),
		say(`what is ratio|ratio comparison of quantities`, "A ratio compares two or more quantities of the same kind, written a:b or a/b."),
		say(`what is average|average formula|sum of numbers over total numbers`, "Average = sum of all the numbers / how many numbers there are."),
	}},
	{"algebra", []rule{
		say(`difference between equation and expression|equation vs expression|has equals sign no equals sign`,
			"An equation has an equals sign and states that two expressions are equal (2x = 10). An expression has no equals sign (2x + 5)."),
		say(`how do you solve linear equations|solve linear equations|move variables one side`,
			"Solve a linear equation by isolating the variable on one side with inverse operations."),
		say(`what is factorization|factorization definition|breaking expression multiplicative parts`,
			"Factorization breaks an expression into its multiplicative parts, for example x^2 + 2x = x(x + 2)."),
		say(`what is the quadratic formula|quadratic formula|x equals minus b plus minus root b squared minus 4ac`,
			"For ax^2 + bx + c = 0: x = (-b +/- sqrt(b^2 - 4ac)) / 2a."),
		say(`what are algebraic identities|algebraic identities|a plus b squared a minus b squared a squared minus b squared`,
			"Algebraic identities hold for every value of their variables, such as (a + b)^2 = a^2 + 2ab + b^2."),
	}},
	{"geometry", []rule{
		say(`what is a triangle's angle sum|triangle angle sum|sum of angles of a triangle`, "The interior angles of any triangle add up to 180 degrees."),
		say(`what is pythagoras theorem|pythagoras theorem|a squared plus b squared equals c squared right triangle`,
			"In a right triangle the square of the hypotenuse equals the sum of the squares of the other two sides: a^2 + b^2 = c^2."),
		say(`what are congruent triangles|congruent triangles|same size and shape`,
			"Congruent triangles have exactly the same size and shape: all corresponding sides and angles are equal."),
		say(`what is a parallelogram|parallelogram definition|opposite sides parallel and equal`,
			"A parallelogram is a quadrilateral whose opposite sides are parallel and equal. Its opposite angles are equal too."),
		say(`what is the area of a circle|area of a circle formula|pi r squared`, "The area of a circle is pi r^2."),
	}},
	{"mensuration", []rule{
		say(`what is the perimeter of a rectangle|perimeter of a rectangle formula|two times l plus b`, "The perimeter of a rectangle is 2(l + b)."),
		say(`what is the area of a triangle|area of a triangle formula|half base times height`, "The area of a triangle is 1/2 x base x height."),
		say(`what is the volume of a cube|volume of a cube formula|a cubed side cubed`, "The volume of a cube is a^3, the side length cubed."),
		say(`what is the volume of a cylinder|volume of a cylinder formula|pi r squared h`, "The volume of a cylinder is pi r^2 h."),
		say(`what is the curved surface area of a cylinder|curved surface area of a cylinder formula|two pi r h csa`,
			"The curved surface area of a cylinder is 2 pi r h."),
	}},
	{"trigonometry", []rule{
		say(`what is sin cos tan|sin cos tan definition|opposite hypotenuse adjacent right triangle`,
			"sin = opposite / hypotenuse, cos = adjacent / hypotenuse, tan = opposite / adjacent."),
		say(`what are the main trigonometric identities|trigonometric identities|sin squared plus cos squared equals 1 tan equals sin over cos`,
			"The Pythagorean identities are sin^2 + cos^2 = 1, 1 + tan^2 = sec^2 and 1 + cot^2 = csc^2."),
		say(`what is the value of sin 0 30 45 60 90|sin values 0 to 90|basic sine values`,
			"sin of 0, 30, 45, 60 and 90 degrees is 0, 1/2, 1/sqrt(2), sqrt(3)/2 and 1."),
	}},
}
